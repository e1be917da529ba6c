// Package cli реализует инструмент командной строки addonloader.
//
// # Обзор
//
// CLI работает в двух режимах:
//   - локально: install и resolve собирают pipeline в процессе
//     (resolver, fetcher, unpack) и печатают результат в stdout
//   - удалённо: installs и schedule обращаются к addonloader API по HTTP
//
// # Ключевые компоненты
//
// ## Client
//
// HTTP-клиент для addonloader API. Инкапсулирует HTTP-запросы,
// разбор ответов ({data}, {data,total}, {error}) и ошибки (APIError).
//
//	client := cli.NewClient("http://localhost:8080")
//	id, err := client.EnqueueInstall(cli.AddonRequest{AddonToken: "aptechka", AddonsDirectory: dir})
//
// ## Output
//
// Форматирование вывода. Поддерживает два режима:
//   - Таблицы (text/tabwriter) — по умолчанию
//   - JSON — с флагом --json
//
// Данные выводятся в stdout, сообщения (Success/Error) и логи — в stderr.
// install всегда печатает OutcomeMessage одной строкой JSON:
//
//	addonloader install aptechka --dir ~/wow/Interface/AddOns | jq .failed
//
// ## Commands
//
//   - install, resolve — локальная установка и проверка выбора релиза
//   - installs: enqueue, list, show
//   - schedule: list, create, show, delete, enable, disable
//
// Каждая команда создаётся фабричной функцией (NewInstallCmd и т.д.),
// принимающей замыкания cfgFn/clientFn и outputFn, которые вызываются
// после парсинга PersistentFlags.
package cli
