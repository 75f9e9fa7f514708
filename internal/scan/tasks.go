package scan

import (
	"sync"
	"time"

	"go.uber.org/zap"
)

// TaskSet é o conjunto limitado de escritas em background do ciclo (os
// lotes de progresso). O caminho principal nunca bloqueia: se o limite de
// tarefas em voo estiver cheio, a escrita é descartada — progresso é
// best-effort. No fim do ciclo há um join com timeout explícito.
type TaskSet struct {
	log     *zap.Logger
	sem     chan struct{}
	wg      sync.WaitGroup
	mu      sync.Mutex
	dropped int
}

// NewTaskSet cria o conjunto com limite de tarefas simultâneas.
func NewTaskSet(limit int, log *zap.Logger) *TaskSet {
	if limit <= 0 {
		limit = 8
	}
	return &TaskSet{log: log, sem: make(chan struct{}, limit)}
}

// Go agenda a tarefa sem bloquear. Erros são logados, não propagados.
func (t *TaskSet) Go(name string, fn func() error) {
	select {
	case t.sem <- struct{}{}:
	default:
		t.mu.Lock()
		t.dropped++
		t.mu.Unlock()
		t.log.Warn("background task dropped, set full", zap.String("task", name))
		return
	}

	t.wg.Add(1)
	go func() {
		defer t.wg.Done()
		defer func() { <-t.sem }()
		if err := fn(); err != nil {
			t.log.Warn("background task failed", zap.String("task", name), zap.Error(err))
		}
	}()
}

// Join espera as tarefas em voo por até timeout; devolve false se o prazo
// venceu com tarefas pendentes (elas são abandonadas, não retentadas).
func (t *TaskSet) Join(timeout time.Duration) bool {
	done := make(chan struct{})
	go func() {
		t.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return true
	case <-time.After(timeout):
		t.log.Warn("background tasks still pending after grace period")
		return false
	}
}

// Dropped informa quantas tarefas foram descartadas no ciclo.
func (t *TaskSet) Dropped() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.dropped
}
