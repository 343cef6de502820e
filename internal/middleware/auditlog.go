package middleware

import (
	"log"
	"sync"
	"time"

	"github.com/bayt-al-hikmah/taskgate/internal/models"
	"github.com/gin-gonic/gin"
)

const auditBatchSize = 100

// AuditSink receives batched audit rows. Satisfied by
// repository.RequestLogRepository.
type AuditSink interface {
	CreateBatch(logs []models.RequestLog) error
}

// AuditLogger records one row per handled request, batched through a
// buffered channel so the hot path never waits on the database. An
// explicitly constructed instance, not package state, so tests can
// plug in a fake sink.
type AuditLogger struct {
	sink  AuditSink
	logC  chan models.RequestLog
	stopC chan struct{}
	wg    sync.WaitGroup
}

func NewAuditLogger(sink AuditSink, bufferSize int) *AuditLogger {
	if bufferSize <= 0 {
		bufferSize = 1000
	}

	a := &AuditLogger{
		sink:  sink,
		logC:  make(chan models.RequestLog, bufferSize),
		stopC: make(chan struct{}),
	}

	a.wg.Add(1)
	go a.worker()

	return a
}

func (a *AuditLogger) worker() {
	defer a.wg.Done()

	batch := make([]models.RequestLog, 0, auditBatchSize)
	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()

	flush := func() {
		if len(batch) == 0 {
			return
		}
		if err := a.sink.CreateBatch(batch); err != nil {
			log.Printf("failed to insert request logs: %v", err)
		}
		batch = make([]models.RequestLog, 0, auditBatchSize)
	}

	for {
		select {
		case entry := <-a.logC:
			batch = append(batch, entry)
			if len(batch) >= auditBatchSize {
				flush()
			}
		case <-ticker.C:
			flush()
		case <-a.stopC:
			// Drain whatever is still queued before exiting
			for {
				select {
				case entry := <-a.logC:
					batch = append(batch, entry)
				default:
					flush()
					return
				}
			}
		}
	}
}

// Stop flushes pending rows and terminates the worker.
func (a *AuditLogger) Stop() {
	close(a.stopC)
	a.wg.Wait()
}

// Middleware queues an audit row after each request completes.
func (a *AuditLogger) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		entry := models.RequestLog{
			Timestamp:      start,
			Method:         c.Request.Method,
			Path:           c.Request.URL.Path,
			StatusCode:     c.Writer.Status(),
			ResponseTimeMs: int(time.Since(start).Milliseconds()),
			IPAddress:      c.ClientIP(),
			UserAgent:      c.Request.UserAgent(),
		}

		if id, ok := CurrentUser(c); ok {
			entry.UserID = &id
		}

		select {
		case a.logC <- entry:
		default:
			// Channel full; dropping beats blocking the request
			log.Printf("request audit channel full, dropping entry")
		}
	}
}
