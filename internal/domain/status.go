package domain

// Stage — этап выполнения установки.
//
// Жизненный цикл:
//
//	IDLE → RESOLVING → FETCHING → UNPACKING → SUCCEEDED
//	   ↘         ↘          ↘           ↘
//	                  FAILED
//
// Переходы только вперёд, без повторов.
type Stage string

const (
	// StageIdle — запрос принят, pipeline ещё не стартовал.
	StageIdle Stage = "IDLE"

	// StageResolving — загрузка страницы и выбор релиза.
	StageResolving Stage = "RESOLVING"

	// StageFetching — скачивание архива в scratch-каталог.
	StageFetching Stage = "FETCHING"

	// StageUnpacking — распаковка и удаление архива.
	StageUnpacking Stage = "UNPACKING"

	// StageSucceeded — установка завершена успешно.
	StageSucceeded Stage = "SUCCEEDED"

	// StageFailed — установка завершилась ошибкой на одном из этапов.
	StageFailed Stage = "FAILED"
)

// stageOrder задаёт порядок рабочих этапов.
var stageOrder = map[Stage]int{
	StageIdle:      0,
	StageResolving: 1,
	StageFetching:  2,
	StageUnpacking: 3,
	StageSucceeded: 4,
}

// IsTerminal возвращает true, если этап финальный (результат отправлен).
func (s Stage) IsTerminal() bool {
	switch s {
	case StageSucceeded, StageFailed:
		return true
	default:
		return false
	}
}

// CanTransitionTo проверяет допустимость перехода s → next.
//
// Разрешены только переход на следующий этап и переход в FAILED
// из любого нефинального этапа.
func (s Stage) CanTransitionTo(next Stage) bool {
	if s.IsTerminal() {
		return false
	}
	if next == StageFailed {
		return true
	}
	from, ok := stageOrder[s]
	if !ok {
		return false
	}
	to, ok := stageOrder[next]
	if !ok {
		return false
	}
	return to == from+1
}

// String возвращает строковое представление Stage.
func (s Stage) String() string {
	return string(s)
}
