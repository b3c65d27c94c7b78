package payment

import (
	"sort"
	"sync"
)

// Modals tracks which confirmation dialogs are open and the transaction each
// one belongs to. Opening one modal does not close the others.
type Modals struct {
	mu   sync.RWMutex
	open map[Modal]string // modal -> pending transaction id
}

func NewModals() *Modals {
	return &Modals{open: make(map[Modal]string)}
}

func (m *Modals) Open(modal Modal, transactionID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.open[modal] = transactionID
}

func (m *Modals) Close(modal Modal) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.open, modal)
}

func (m *Modals) IsOpen(modal Modal) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.open[modal]
	return ok
}

// Transaction returns the transaction id shown by an open modal
func (m *Modals) Transaction(modal Modal) (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	id, ok := m.open[modal]
	return id, ok
}

// ModalForTransaction finds the open modal showing a transaction
func (m *Modals) ModalForTransaction(transactionID string) (Modal, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for modal, id := range m.open {
		if id == transactionID {
			return modal, true
		}
	}
	return "", false
}

// OpenModals returns the open modals sorted by name
func (m *Modals) OpenModals() []Modal {
	m.mu.RLock()
	defer m.mu.RUnlock()

	modals := make([]Modal, 0, len(m.open))
	for modal := range m.open {
		modals = append(modals, modal)
	}
	sort.Slice(modals, func(i, j int) bool { return modals[i] < modals[j] })
	return modals
}

// CloseAll is used when the session ends
func (m *Modals) CloseAll() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.open = make(map[Modal]string)
}
