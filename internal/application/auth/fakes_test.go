package auth_test

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/jhoicas/facturabodega-api/internal/application/ports"
	"github.com/jhoicas/facturabodega-api/internal/domain/entity"
	"github.com/jhoicas/facturabodega-api/internal/domain/repository"
)

// ── Fakes en memoria ──────────────────────────────────────────────────────────

type memEmployees struct {
	mu   sync.Mutex
	rows map[string]*entity.Employee
}

func newMemEmployees(emps ...*entity.Employee) *memEmployees {
	m := &memEmployees{rows: map[string]*entity.Employee{}}
	for _, e := range emps {
		m.rows[e.ID] = e
	}
	return m
}

func (m *memEmployees) Create(_ context.Context, e *entity.Employee) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows[e.ID] = e
	return nil
}

func (m *memEmployees) GetByID(_ context.Context, id string) (*entity.Employee, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if e, ok := m.rows[id]; ok {
		cp := *e
		return &cp, nil
	}
	return nil, nil
}

func (m *memEmployees) GetByEmail(_ context.Context, email string) (*entity.Employee, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range m.rows {
		if e.Email == email {
			cp := *e
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *memEmployees) List(context.Context, repository.EmployeeFilter) ([]*entity.Employee, error) {
	return nil, nil
}

func (m *memEmployees) Update(_ context.Context, e *entity.Employee) error {
	return m.Create(context.Background(), e)
}

func (m *memEmployees) UpdatePassword(_ context.Context, id, hash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows[id].PasswordHash = hash
	return nil
}

func (m *memEmployees) UpdateRole(_ context.Context, id, roleID string) error { return nil }

func (m *memEmployees) SetStatus(_ context.Context, id, status string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows[id].Status = status
	return nil
}

func (m *memEmployees) hash(id string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.rows[id].PasswordHash
}

type memSessions struct {
	mu       sync.Mutex
	rows     []*entity.RefreshToken
	pruneErr error
}

func (m *memSessions) Create(_ context.Context, t *entity.RefreshToken) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *t
	m.rows = append(m.rows, &cp)
	return nil
}

func (m *memSessions) GetByToken(_ context.Context, token string) (*entity.RefreshToken, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.rows {
		if r.Token == token {
			cp := *r
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *memSessions) Rotate(_ context.Context, oldToken, newToken string, exp, rotatedAt time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.rows {
		if r.Token == oldToken {
			r.Token = newToken
			r.ExpiresAt = exp
			r.CreatedAt = rotatedAt
			return true, nil
		}
	}
	return false, nil
}

func (m *memSessions) PruneForEmployee(_ context.Context, employeeID string, now time.Time, keep int) (int64, error) {
	if m.pruneErr != nil {
		return 0, m.pruneErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var mine, others []*entity.RefreshToken
	var deleted int64
	for _, r := range m.rows {
		switch {
		case r.EmployeeID != employeeID:
			others = append(others, r)
		case r.Expired(now):
			deleted++
		default:
			mine = append(mine, r)
		}
	}
	sort.SliceStable(mine, func(i, j int) bool { return mine[i].CreatedAt.After(mine[j].CreatedAt) })
	if len(mine) > keep {
		deleted += int64(len(mine) - keep)
		mine = mine[:keep]
	}
	m.rows = append(others, mine...)
	return deleted, nil
}

func (m *memSessions) DeleteByEmployee(_ context.Context, employeeID string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var kept []*entity.RefreshToken
	var n int64
	for _, r := range m.rows {
		if r.EmployeeID == employeeID {
			n++
			continue
		}
		kept = append(kept, r)
	}
	m.rows = kept
	return n, nil
}

func (m *memSessions) count(employeeID string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, r := range m.rows {
		if r.EmployeeID == employeeID {
			n++
		}
	}
	return n
}

// memRecovery una fila por empleado, como la restricción UNIQUE(employee_id).
type memRecovery struct {
	mu   sync.Mutex
	rows map[string]*entity.RecoveryToken
}

func newMemRecovery() *memRecovery {
	return &memRecovery{rows: map[string]*entity.RecoveryToken{}}
}

func (m *memRecovery) Upsert(_ context.Context, t *entity.RecoveryToken) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if cur, ok := m.rows[t.EmployeeID]; ok {
		cur.Token, cur.ExpiresAt, cur.IsUsed = t.Token, t.ExpiresAt, false
		return nil
	}
	cp := *t
	m.rows[t.EmployeeID] = &cp
	return nil
}

func (m *memRecovery) GetByToken(_ context.Context, token string) (*entity.RecoveryToken, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.rows {
		if r.Token == token {
			cp := *r
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *memRecovery) MarkUsed(_ context.Context, token string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.rows {
		if r.Token == token && !r.IsUsed {
			r.IsUsed = true
			return true, nil
		}
	}
	return false, nil
}

func (m *memRecovery) expire(employeeID string, at time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows[employeeID].ExpiresAt = at
}

// memTx ejecuta fn sobre los mismos fakes (sin rollback).
type memTx struct {
	employees *memEmployees
	recovery  *memRecovery
}

func (tx memTx) RunAuth(_ context.Context, fn func(repository.EmployeeRepository, repository.RecoveryTokenRepository) error) error {
	return fn(tx.employees, tx.recovery)
}

type staticEvaluator map[string][]string

func (s staticEvaluator) Evaluate(role, perm string) bool {
	for _, p := range s[role] {
		if p == perm {
			return true
		}
	}
	return false
}

type recordingNotifier struct {
	mu    sync.Mutex
	sent  []ports.Message
	err   error
	delay time.Duration
}

func (n *recordingNotifier) Send(ctx context.Context, msg ports.Message) error {
	if n.delay > 0 {
		select {
		case <-time.After(n.delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.err != nil {
		return n.err
	}
	n.sent = append(n.sent, msg)
	return nil
}

func (n *recordingNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.sent)
}

func (n *recordingNotifier) last() ports.Message {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.sent[len(n.sent)-1]
}

var errSMTP = errors.New("smtp caído")
