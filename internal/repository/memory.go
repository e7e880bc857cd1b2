package repository

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/docuflow/docuflow/internal/models"
)

// Memory is an in-process implementation of the repository interfaces,
// used by service tests the same way storage.Memory stands in for the
// blob store. Now is swappable so tests can advance the clock.
type Memory struct {
	mu  sync.Mutex
	Now func() time.Time

	nextID    int64
	documents map[int64]*models.Document
	shares    map[int64]*models.SharedDocument
	partials  map[int64]*models.Partial
	employees map[int64]*models.Employee
	templates map[int64]*models.EmailTemplate
	variables map[int64][]models.EmailTemplateVariable
	otps      map[int64]*models.OtpCode
	users     map[int64]*models.User
	actions   []models.ActionLog
	settings  *models.SuperAdminSetting
}

func NewMemory() *Memory {
	return &Memory{
		Now:       time.Now,
		documents: make(map[int64]*models.Document),
		shares:    make(map[int64]*models.SharedDocument),
		partials:  make(map[int64]*models.Partial),
		employees: make(map[int64]*models.Employee),
		templates: make(map[int64]*models.EmailTemplate),
		variables: make(map[int64][]models.EmailTemplateVariable),
		otps:      make(map[int64]*models.OtpCode),
		users:     make(map[int64]*models.User),
	}
}

func (m *Memory) id() int64 {
	m.nextID++
	return m.nextID
}

// Documents

func (m *Memory) Create(ctx context.Context, doc *models.Document) (*models.Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, d := range m.documents {
		if d.PDFID == doc.PDFID {
			return nil, ErrConflict
		}
	}
	cp := *doc
	cp.ID = m.id()
	cp.CreatedAt = m.Now()
	cp.UpdatedAt = cp.CreatedAt
	m.documents[cp.ID] = &cp
	out := cp
	return &out, nil
}

func (m *Memory) GetByPDFID(ctx context.Context, pdfID string) (*models.Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, d := range m.documents {
		if d.PDFID == pdfID && d.DeletedAt == nil {
			cp := *d
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (m *Memory) GetTrashedByPDFID(ctx context.Context, pdfID string) (*models.Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, d := range m.documents {
		if d.PDFID == pdfID && d.DeletedAt != nil {
			cp := *d
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (m *Memory) GetByID(ctx context.Context, id int64) (*models.Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.documents[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *d
	return &cp, nil
}

func (m *Memory) Update(ctx context.Context, doc *models.Document) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.documents[doc.ID]
	if !ok {
		return ErrNotFound
	}
	cp := *doc
	cp.CreatedAt = d.CreatedAt
	cp.UpdatedAt = m.Now()
	m.documents[doc.ID] = &cp
	return nil
}

func (m *Memory) listDocs(match func(*models.Document) bool) []models.Document {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Document
	for _, d := range m.documents {
		if match(d) {
			out = append(out, *d)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (m *Memory) ListActive(ctx context.Context, ownerID int64) ([]models.Document, error) {
	return m.listDocs(func(d *models.Document) bool {
		return d.UserID == ownerID && d.DeletedAt == nil && !d.IsArchived
	}), nil
}

func (m *Memory) ListArchived(ctx context.Context, ownerID int64) ([]models.Document, error) {
	return m.listDocs(func(d *models.Document) bool {
		return d.UserID == ownerID && d.DeletedAt == nil && d.IsArchived
	}), nil
}

func (m *Memory) ListTrashed(ctx context.Context, ownerID int64) ([]models.Document, error) {
	return m.listDocs(func(d *models.Document) bool {
		return d.UserID == ownerID && d.DeletedAt != nil
	}), nil
}

func (m *Memory) SetArchived(ctx context.Context, id int64, archived bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.documents[id]
	if !ok {
		return ErrNotFound
	}
	d.IsArchived = archived
	d.UpdatedAt = m.Now()
	return nil
}

func (m *Memory) Trash(ctx context.Context, id int64, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.documents[id]
	if !ok {
		return ErrNotFound
	}
	d.DeletedAt = &at
	return nil
}

func (m *Memory) Restore(ctx context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.documents[id]
	if !ok || d.DeletedAt == nil {
		return ErrNotFound
	}
	d.DeletedAt = nil
	return nil
}

func (m *Memory) ForceDelete(ctx context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.documents[id]; !ok {
		return ErrNotFound
	}
	delete(m.documents, id)
	return nil
}

// Shares

func (m *Memory) GetPending(ctx context.Context, documentID, employeeID int64) (*models.SharedDocument, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.pendingLocked(documentID, employeeID)
}

func (m *Memory) pendingLocked(documentID, employeeID int64) (*models.SharedDocument, error) {
	for _, s := range m.shares {
		if s.DocumentID == documentID && s.EmployeeID == employeeID && s.Status == models.ShareStatusPending {
			cp := *s
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (m *Memory) Get(ctx context.Context, id int64) (*models.SharedDocument, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.shares[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *s
	return &cp, nil
}

func (m *Memory) Delete(ctx context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.shares[id]; !ok {
		return ErrNotFound
	}
	delete(m.shares, id)
	return nil
}

func (m *Memory) CreateShare(ctx context.Context, share *models.SharedDocument, send func(*models.SharedDocument) error) (bool, *models.SharedDocument, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if existing, err := m.pendingLocked(share.DocumentID, share.EmployeeID); err == nil {
		return false, existing, nil
	}
	cp := *share
	cp.ID = m.id()
	cp.CreatedAt = m.Now()
	cp.UpdatedAt = cp.CreatedAt
	if send != nil {
		out := cp
		if err := send(&out); err != nil {
			return false, nil, err
		}
	}
	m.shares[cp.ID] = &cp
	out := cp
	return true, &out, nil
}

func (m *Memory) MarkSigned(ctx context.Context, share *models.SharedDocument) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.shares[share.ID]
	if !ok {
		return ErrNotFound
	}
	s.SharedDocumentName = share.SharedDocumentName
	s.FilePath = share.FilePath
	s.Canvas = share.Canvas
	s.Pages = share.Pages
	s.Status = models.ShareStatusSigned
	s.SignedAt = share.SignedAt
	s.ValidFor = 0
	s.UpdatedAt = m.Now()
	return nil
}

func (m *Memory) listShares(match func(*models.SharedDocument) bool) []models.SharedDocument {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.SharedDocument
	for _, s := range m.shares {
		if match(s) {
			out = append(out, *s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (m *Memory) ListByOwner(ctx context.Context, ownerID int64) ([]models.SharedDocument, error) {
	return m.listShares(func(s *models.SharedDocument) bool { return s.UserID == ownerID }), nil
}

func (m *Memory) ListSignedByOwner(ctx context.Context, ownerID int64) ([]models.SharedDocument, error) {
	return m.listShares(func(s *models.SharedDocument) bool {
		return s.UserID == ownerID && s.Status == models.ShareStatusSigned
	}), nil
}

// Partials

func (m *Memory) CreatePartial(ctx context.Context, p *models.Partial) (*models.Partial, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *p
	cp.ID = m.id()
	cp.CreatedAt = m.Now()
	m.partials[cp.ID] = &cp
	out := cp
	return &out, nil
}

func (m *Memory) ListPartialsByOwner(ctx context.Context, ownerID int64) ([]models.Partial, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Partial
	for _, p := range m.partials {
		if p.UserID == ownerID {
			out = append(out, *p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// Employees

func (m *Memory) GetEmployee(ctx context.Context, id int64) (*models.Employee, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.employees[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *e
	return &cp, nil
}

func (m *Memory) GetOwnedEmployee(ctx context.Context, ownerID, id int64) (*models.Employee, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.employees[id]
	if !ok || e.UserID != ownerID {
		return nil, ErrNotFound
	}
	cp := *e
	return &cp, nil
}

func (m *Memory) ListEmployees(ctx context.Context, ownerID int64) ([]models.Employee, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Employee
	for _, e := range m.employees {
		if e.UserID == ownerID {
			out = append(out, *e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *Memory) CreateEmployee(ctx context.Context, e *models.Employee) (*models.Employee, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *e
	cp.ID = m.id()
	cp.CreatedAt = m.Now()
	m.employees[cp.ID] = &cp
	out := cp
	return &out, nil
}

func (m *Memory) DeleteEmployee(ctx context.Context, ownerID, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.employees[id]
	if !ok || e.UserID != ownerID {
		return ErrNotFound
	}
	delete(m.employees, id)
	return nil
}

// Templates

func (m *Memory) ListTemplates(ctx context.Context) ([]models.EmailTemplate, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.EmailTemplate
	for _, t := range m.templates {
		out = append(out, *t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *Memory) GetTemplate(ctx context.Context, id int64) (*models.EmailTemplate, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.templates[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *t
	return &cp, nil
}

func (m *Memory) GetTemplateByName(ctx context.Context, name string) (*models.EmailTemplate, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, t := range m.templates {
		if strings.EqualFold(t.Name, name) {
			cp := *t
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (m *Memory) CreateTemplate(ctx context.Context, t *models.EmailTemplate) (*models.EmailTemplate, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.templates {
		if strings.EqualFold(existing.Name, t.Name) {
			return nil, ErrConflict
		}
	}
	cp := *t
	cp.ID = m.id()
	cp.CreatedAt = m.Now()
	cp.UpdatedAt = cp.CreatedAt
	m.templates[cp.ID] = &cp
	out := cp
	return &out, nil
}

func (m *Memory) UpdateTemplate(ctx context.Context, t *models.EmailTemplate) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.templates[t.ID]; !ok {
		return ErrNotFound
	}
	cp := *t
	cp.UpdatedAt = m.Now()
	m.templates[t.ID] = &cp
	return nil
}

func (m *Memory) DeleteTemplate(ctx context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.templates[id]; !ok {
		return ErrNotFound
	}
	delete(m.templates, id)
	delete(m.variables, id)
	return nil
}

func (m *Memory) ListVariables(ctx context.Context, templateID int64) ([]models.EmailTemplateVariable, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]models.EmailTemplateVariable(nil), m.variables[templateID]...), nil
}

func (m *Memory) UpsertVariable(ctx context.Context, v *models.EmailTemplateVariable) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	vars := m.variables[v.TemplateID]
	for i := range vars {
		if vars[i].VariableName == v.VariableName {
			vars[i].DisplayName = v.DisplayName
			vars[i].DefaultValue = v.DefaultValue
			return nil
		}
	}
	cp := *v
	cp.ID = m.id()
	m.variables[v.TemplateID] = append(vars, cp)
	return nil
}

// OTP codes

func (m *Memory) InvalidateForEmail(ctx context.Context, email string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, o := range m.otps {
		if strings.EqualFold(o.Email, email) {
			o.Verified = true
		}
	}
	return nil
}

func (m *Memory) CreateOtp(ctx context.Context, code *models.OtpCode) (*models.OtpCode, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *code
	cp.ID = m.id()
	cp.CreatedAt = m.Now()
	m.otps[cp.ID] = &cp
	out := cp
	return &out, nil
}

func (m *Memory) LatestValid(ctx context.Context, email string, now time.Time) (*models.OtpCode, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var latest *models.OtpCode
	for _, o := range m.otps {
		if !strings.EqualFold(o.Email, email) || o.Verified || !o.ExpiresAt.After(now) {
			continue
		}
		if latest == nil || o.ID > latest.ID {
			latest = o
		}
	}
	if latest == nil {
		return nil, ErrNotFound
	}
	cp := *latest
	return &cp, nil
}

func (m *Memory) MarkVerified(ctx context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.otps[id]
	if !ok {
		return ErrNotFound
	}
	o.Verified = true
	return nil
}

// Users

func (m *Memory) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (m *Memory) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if strings.EqualFold(u.Email, email) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (m *Memory) CreateUser(ctx context.Context, u *models.User) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.users {
		if strings.EqualFold(existing.Email, u.Email) {
			return nil, ErrConflict
		}
	}
	cp := *u
	cp.ID = m.id()
	cp.CreatedAt = m.Now()
	m.users[cp.ID] = &cp
	out := cp
	return &out, nil
}

func (m *Memory) SetOTPEnabled(ctx context.Context, id int64, enabled bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return ErrNotFound
	}
	u.OTPEnabled = enabled
	return nil
}

func (m *Memory) MarkEmailVerified(ctx context.Context, id int64, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return ErrNotFound
	}
	u.EmailVerifiedAt = &at
	return nil
}

// Action log

func (m *Memory) Append(ctx context.Context, entry *models.ActionLog) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *entry
	cp.ID = m.id()
	cp.CreatedAt = m.Now()
	m.actions = append(m.actions, cp)
	return nil
}

func (m *Memory) ListByUser(ctx context.Context, userID int64, limit, offset int) ([]models.ActionLog, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.ActionLog
	for i := len(m.actions) - 1; i >= 0; i-- {
		if m.actions[i].UserID == userID {
			out = append(out, m.actions[i])
		}
	}
	if offset > len(out) {
		offset = len(out)
	}
	out = out[offset:]
	if limit > 0 && limit < len(out) {
		out = out[:limit]
	}
	return out, nil
}

func (m *Memory) CountByAction(ctx context.Context, userID int64, since time.Time) (map[string]int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	counts := make(map[string]int)
	for _, a := range m.actions {
		if a.UserID == userID && !a.CreatedAt.Before(since) {
			counts[a.Action]++
		}
	}
	return counts, nil
}

// Actions returns a copy of every logged action, oldest first.
func (m *Memory) Actions() []models.ActionLog {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]models.ActionLog(nil), m.actions...)
}

// Settings

func (m *Memory) GetSettings(ctx context.Context) (*models.SuperAdminSetting, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.settings == nil {
		return nil, ErrNotFound
	}
	cp := *m.settings
	return &cp, nil
}

func (m *Memory) SaveSettings(ctx context.Context, s *models.SuperAdminSetting) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *s
	if m.settings != nil {
		cp.ID = m.settings.ID
	} else {
		cp.ID = m.id()
	}
	cp.UpdatedAt = m.Now()
	m.settings = &cp
	return nil
}

// Per-aggregate views. Memory carries all aggregates in one struct, so the
// views rename the handful of methods whose names collide across interfaces.

type MemoryDocuments struct{ *Memory }

type MemoryShares struct{ *Memory }

func (r MemoryShares) Create(ctx context.Context, share *models.SharedDocument, send func(*models.SharedDocument) error) (bool, *models.SharedDocument, error) {
	return r.CreateShare(ctx, share, send)
}

type MemoryPartials struct{ *Memory }

func (r MemoryPartials) Create(ctx context.Context, p *models.Partial) (*models.Partial, error) {
	return r.CreatePartial(ctx, p)
}

func (r MemoryPartials) ListByOwner(ctx context.Context, ownerID int64) ([]models.Partial, error) {
	return r.ListPartialsByOwner(ctx, ownerID)
}

type MemoryEmployees struct{ *Memory }

func (r MemoryEmployees) Get(ctx context.Context, id int64) (*models.Employee, error) {
	return r.GetEmployee(ctx, id)
}

func (r MemoryEmployees) GetOwned(ctx context.Context, ownerID, id int64) (*models.Employee, error) {
	return r.GetOwnedEmployee(ctx, ownerID, id)
}

func (r MemoryEmployees) List(ctx context.Context, ownerID int64) ([]models.Employee, error) {
	return r.ListEmployees(ctx, ownerID)
}

func (r MemoryEmployees) Create(ctx context.Context, e *models.Employee) (*models.Employee, error) {
	return r.CreateEmployee(ctx, e)
}

func (r MemoryEmployees) Delete(ctx context.Context, ownerID, id int64) error {
	return r.DeleteEmployee(ctx, ownerID, id)
}

type MemoryTemplates struct{ *Memory }

func (r MemoryTemplates) List(ctx context.Context) ([]models.EmailTemplate, error) {
	return r.ListTemplates(ctx)
}

func (r MemoryTemplates) Get(ctx context.Context, id int64) (*models.EmailTemplate, error) {
	return r.GetTemplate(ctx, id)
}

func (r MemoryTemplates) Create(ctx context.Context, t *models.EmailTemplate) (*models.EmailTemplate, error) {
	return r.CreateTemplate(ctx, t)
}

func (r MemoryTemplates) Update(ctx context.Context, t *models.EmailTemplate) error {
	return r.UpdateTemplate(ctx, t)
}

func (r MemoryTemplates) Delete(ctx context.Context, id int64) error {
	return r.DeleteTemplate(ctx, id)
}

type MemoryOtp struct{ *Memory }

func (r MemoryOtp) Create(ctx context.Context, code *models.OtpCode) (*models.OtpCode, error) {
	return r.CreateOtp(ctx, code)
}

type MemoryUsers struct{ *Memory }

func (r MemoryUsers) GetByID(ctx context.Context, id int64) (*models.User, error) {
	return r.GetUserByID(ctx, id)
}

func (r MemoryUsers) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.GetUserByEmail(ctx, email)
}

func (r MemoryUsers) Create(ctx context.Context, u *models.User) (*models.User, error) {
	return r.CreateUser(ctx, u)
}

type MemoryActions struct{ *Memory }

type MemorySettings struct{ *Memory }

func (r MemorySettings) Get(ctx context.Context) (*models.SuperAdminSetting, error) {
	return r.GetSettings(ctx)
}

func (r MemorySettings) Save(ctx context.Context, s *models.SuperAdminSetting) error {
	return r.SaveSettings(ctx, s)
}

var (
	_ DocumentRepository  = MemoryDocuments{}
	_ ShareRepository     = MemoryShares{}
	_ PartialRepository   = MemoryPartials{}
	_ EmployeeRepository  = MemoryEmployees{}
	_ TemplateRepository  = MemoryTemplates{}
	_ OtpRepository       = MemoryOtp{}
	_ UserRepository      = MemoryUsers{}
	_ ActionLogRepository = MemoryActions{}
	_ SettingsRepository  = MemorySettings{}
)
