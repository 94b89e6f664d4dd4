package memstore

import (
	"context"
	"sync"
)

type journalKey struct{}

// journal список отмен изменений, сделанных внутри транзакции
type journal struct {
	mu   sync.Mutex
	undo []func()
}

// TxManager менеджер транзакций для хранилища в памяти
// При ошибке или панике изменения, сделанные внутри fn, отменяются в обратном порядке.
// Вложенный вызов присоединяется к внешней транзакции.
type TxManager struct {
	s *Store
}

// TxManager возвращает менеджер транзакций хранилища
func (s *Store) TxManager() *TxManager { return &TxManager{s: s} }

func (m *TxManager) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	return m.run(ctx, fn)
}

func (m *TxManager) DoSerializable(ctx context.Context, fn func(ctx context.Context) error) error {
	return m.run(ctx, fn)
}

func (m *TxManager) run(ctx context.Context, fn func(ctx context.Context) error) (err error) {
	if _, ok := ctx.Value(journalKey{}).(*journal); ok {
		return fn(ctx)
	}

	j := &journal{}
	defer func() {
		if p := recover(); p != nil {
			m.rollback(j)
			panic(p)
		}
		if err != nil {
			m.rollback(j)
		}
	}()

	return fn(context.WithValue(ctx, journalKey{}, j))
}

func (m *TxManager) rollback(j *journal) {
	j.mu.Lock()
	undo := j.undo
	j.undo = nil
	j.mu.Unlock()

	for i := len(undo) - 1; i >= 0; i-- {
		undo[i]()
	}
}

// record запоминает отмену изменения, если вызов идёт внутри транзакции
// Вызывается под lock, отмена при откате берёт тот же lock.
func (s *Store) record(ctx context.Context, lock sync.Locker, undo func()) {
	j, ok := ctx.Value(journalKey{}).(*journal)
	if !ok {
		return
	}

	j.mu.Lock()
	j.undo = append(j.undo, func() {
		lock.Lock()
		defer lock.Unlock()
		undo()
	})
	j.mu.Unlock()
}
