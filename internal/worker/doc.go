// Package worker выполняет запросы на установку из RabbitMQ.
//
// Worker читает очередь installs.requested, разбирает AddonRequest
// и передаёт его pipeline. Pipeline сам сообщает результат (очередь
// installs.outcomes и журнал), после чего сообщение подтверждается.
//
// Повторов нет: даже если установка или доставка результата не
// удалась, сообщение подтверждается. В DLQ попадают только сообщения,
// которые нельзя разобрать.
//
//	w := worker.New(worker.Config{
//	    Runner:   pipe,
//	    Conn:     mqConn,
//	    Prefetch: cfg.WorkerPrefetch,
//	    Logger:   logger,
//	})
//	if err := w.Start(ctx); err != nil {
//	    log.Fatal(err)
//	}
//	defer w.Stop()
package worker
