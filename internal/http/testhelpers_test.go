package httpx

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/crednova/crednova-api/internal/data"
	"github.com/crednova/crednova-api/internal/domain/model"
	"github.com/crednova/crednova-api/internal/ports"
)

func newFormRequest(path string, form url.Values) *http.Request {
	r := httptest.NewRequest("POST", path, strings.NewReader(form.Encode()))
	r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return r
}

func serve(fx *routerFixture, r *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	fx.handler.ServeHTTP(w, r)
	return w
}

func listAllMessages() model.MessagesListOptions {
	return model.MessagesListOptions{Limit: 100}
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// memSessionStore is an in-memory ports.SessionStore for handler tests.
type memSessionStore struct {
	mu    sync.Mutex
	snaps map[string]ports.BrowserSession
}

func newMemSessionStore() *memSessionStore {
	return &memSessionStore{snaps: make(map[string]ports.BrowserSession)}
}

func (s *memSessionStore) Save(_ context.Context, snap ports.BrowserSession) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snaps[snap.ID] = snap
	return nil
}

func (s *memSessionStore) Get(_ context.Context, id string) (ports.BrowserSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap, ok := s.snaps[id]
	if !ok {
		return ports.BrowserSession{}, errors.New("session not found")
	}
	return snap, nil
}

func (s *memSessionStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.snaps, id)
	return nil
}

// fakeProfileStore backs both the dashboard and admin profile interfaces.
type fakeProfileStore struct {
	mu       sync.Mutex
	profiles map[string]*model.Profile
}

func newFakeProfileStore() *fakeProfileStore {
	return &fakeProfileStore{profiles: make(map[string]*model.Profile)}
}

func (s *fakeProfileStore) put(p model.Profile) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.profiles[p.ID] = &p
}

func (s *fakeProfileStore) GetByID(_ context.Context, id string) (*model.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.profiles[id]
	if !ok {
		return nil, data.ErrProfileNotFound
	}
	cp := *p
	return &cp, nil
}

func (s *fakeProfileStore) List(_ context.Context, opts model.ProfilesListOptions) ([]*model.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*model.Profile
	for _, p := range s.profiles {
		if opts.Status != nil && p.Status != *opts.Status {
			continue
		}
		cp := *p
		out = append(out, &cp)
	}
	return out, nil
}

func (s *fakeProfileStore) Count(ctx context.Context, opts model.ProfilesListOptions) (int, error) {
	list, err := s.List(ctx, opts)
	return len(list), err
}

func (s *fakeProfileStore) UpdateStatus(_ context.Context, id string, status model.CaseStatus) (*model.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.profiles[id]
	if !ok {
		return nil, data.ErrProfileNotFound
	}
	p.Status = status
	cp := *p
	return &cp, nil
}

func (s *fakeProfileStore) UpdateContact(_ context.Context, id string, req model.UpdateContactRequest) (*model.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.profiles[id]
	if !ok {
		return nil, data.ErrProfileNotFound
	}
	if req.Phone != nil {
		p.Phone = *req.Phone
	}
	if req.Address != nil {
		p.Address = *req.Address
	}
	if req.City != nil {
		p.City = *req.City
	}
	if req.State != nil {
		p.State = *req.State
	}
	if req.ZipCode != nil {
		p.ZipCode = *req.ZipCode
	}
	cp := *p
	return &cp, nil
}

// fakeDebtStore backs both debt interfaces.
type fakeDebtStore struct {
	mu    sync.Mutex
	debts map[string]*model.Debt
}

func newFakeDebtStore() *fakeDebtStore {
	return &fakeDebtStore{debts: make(map[string]*model.Debt)}
}

func (s *fakeDebtStore) Create(_ context.Context, req *model.CreateDebtRequest) (*model.Debt, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	d := &model.Debt{
		ID:          uuid.NewString(),
		UserID:      req.UserID,
		Document:    req.Document,
		Creditor:    req.Creditor,
		AmountCents: req.AmountCents,
		DueDate:     req.DueDate,
		Status:      req.Status,
		CreatedAt:   time.Now(),
	}
	if d.Status == "" {
		d.Status = model.DebtStatusPending
	}
	s.debts[d.ID] = d
	return d, nil
}

func (s *fakeDebtStore) ListByUser(_ context.Context, userID string) ([]*model.Debt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*model.Debt
	for _, d := range s.debts {
		if d.UserID == userID {
			cp := *d
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (s *fakeDebtStore) TotalCentsByUser(ctx context.Context, userID string) (int64, error) {
	list, err := s.ListByUser(ctx, userID)
	if err != nil {
		return 0, err
	}
	var total int64
	for _, d := range list {
		if d.Status != model.DebtStatusSettled {
			total += d.AmountCents
		}
	}
	return total, nil
}

func (s *fakeDebtStore) Update(_ context.Context, id string, req model.UpdateDebtRequest) (*model.Debt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.debts[id]
	if !ok {
		return nil, data.ErrDebtNotFound
	}
	if req.Creditor != nil {
		d.Creditor = *req.Creditor
	}
	if req.AmountCents != nil {
		d.AmountCents = *req.AmountCents
	}
	if req.DueDate != nil {
		d.DueDate = req.DueDate
	}
	if req.Status != nil {
		d.Status = *req.Status
	}
	cp := *d
	return &cp, nil
}

func (s *fakeDebtStore) Delete(_ context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.debts[id]; !ok {
		return false, nil
	}
	delete(s.debts, id)
	return true, nil
}

// fakeContactStore backs the public contact form and the admin inbox.
type fakeContactStore struct {
	mu       sync.Mutex
	messages map[string]*model.ContactMessage
}

func newFakeContactStore() *fakeContactStore {
	return &fakeContactStore{messages: make(map[string]*model.ContactMessage)}
}

func (s *fakeContactStore) Create(_ context.Context, req *model.CreateContactMessageRequest) (*model.ContactMessage, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	m := &model.ContactMessage{
		ID:        uuid.NewString(),
		Name:      req.Name,
		Email:     req.Email,
		Phone:     req.Phone,
		Message:   req.Message,
		Status:    model.MessageStatusNew,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	s.messages[m.ID] = m
	return m, nil
}

func (s *fakeContactStore) List(_ context.Context, opts model.MessagesListOptions) ([]*model.ContactMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*model.ContactMessage
	for _, m := range s.messages {
		if opts.Status != nil && m.Status != *opts.Status {
			continue
		}
		cp := *m
		out = append(out, &cp)
	}
	return out, nil
}

func (s *fakeContactStore) Count(ctx context.Context, opts model.MessagesListOptions) (int, error) {
	list, err := s.List(ctx, opts)
	return len(list), err
}

func (s *fakeContactStore) UpdateStatus(_ context.Context, id string, status model.MessageStatus, adminNotes *string) (*model.ContactMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.messages[id]
	if !ok {
		return nil, data.ErrContactMessageNotFound
	}
	m.Status = status
	if adminNotes != nil {
		m.AdminNotes = adminNotes
	}
	cp := *m
	return &cp, nil
}

// fakeDocumentStore backs both document interfaces.
type fakeDocumentStore struct {
	mu   sync.Mutex
	docs map[string]*model.UserDocument
}

func newFakeDocumentStore() *fakeDocumentStore {
	return &fakeDocumentStore{docs: make(map[string]*model.UserDocument)}
}

func (s *fakeDocumentStore) Create(_ context.Context, req *model.CreateUserDocumentRequest) (*model.UserDocument, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	d := &model.UserDocument{
		ID:        uuid.NewString(),
		UserID:    req.UserID,
		Filename:  req.Filename,
		FileType:  req.FileType,
		FileSize:  req.FileSize,
		FileURL:   req.FileURL,
		CreatedAt: time.Now(),
	}
	s.docs[d.ID] = d
	return d, nil
}

func (s *fakeDocumentStore) ListByUser(_ context.Context, userID string) ([]*model.UserDocument, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*model.UserDocument
	for _, d := range s.docs {
		if d.UserID == userID {
			cp := *d
			out = append(out, &cp)
		}
	}
	return out, nil
}

// fakeUserMessageStore backs both thread interfaces.
type fakeUserMessageStore struct {
	mu       sync.Mutex
	messages []*model.UserMessage
}

func newFakeUserMessageStore() *fakeUserMessageStore {
	return &fakeUserMessageStore{}
}

func (s *fakeUserMessageStore) Append(_ context.Context, req *model.AppendUserMessageRequest) (*model.UserMessage, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	m := &model.UserMessage{
		ID:        uuid.NewString(),
		UserID:    req.UserID,
		AdminID:   req.AdminID,
		Body:      req.Body,
		FromAdmin: req.FromAdmin,
		CreatedAt: time.Now(),
	}
	s.messages = append(s.messages, m)
	return m, nil
}

func (s *fakeUserMessageStore) Thread(_ context.Context, userID string) ([]*model.UserMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*model.UserMessage
	for _, m := range s.messages {
		if m.UserID == userID {
			cp := *m
			out = append(out, &cp)
		}
	}
	return out, nil
}
