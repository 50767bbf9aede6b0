package db

import (
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/Nixie-Tech-LLC/attendance/internal/model"
)

// MemoryStore is an in-process Store. It backs the server when no database
// is configured (demo data comes from the seed package) and is used by tests.
type MemoryStore struct {
	mu  sync.RWMutex
	now func() time.Time
	seq int

	users         map[int]model.User
	participants  map[int]model.Participant
	programs      map[int]model.Program
	yatras        map[int]model.Yatra
	registrations map[int]model.YatraRegistration
	attendance    map[int]model.AttendanceRecord
}

var _ Store = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		now:           time.Now,
		users:         make(map[int]model.User),
		participants:  make(map[int]model.Participant),
		programs:      make(map[int]model.Program),
		yatras:        make(map[int]model.Yatra),
		registrations: make(map[int]model.YatraRegistration),
		attendance:    make(map[int]model.AttendanceRecord),
	}
}

func (m *MemoryStore) nextID() int {
	m.seq++
	return m.seq
}

func (m *MemoryStore) CreateUser(email, hashedPassword string, name *string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, u := range m.users {
		if u.Email == email {
			return 0, ErrDuplicate
		}
	}
	now := m.now()
	u := model.User{
		ID:             m.nextID(),
		Email:          email,
		HashedPassword: hashedPassword,
		Name:           name,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	m.users[u.ID] = u
	return u.ID, nil
}

func (m *MemoryStore) GetUserByEmail(email string) (*model.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, u := range m.users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, ErrNotFound
}

func (m *MemoryStore) GetUserByID(id int) (*model.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	u, ok := m.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &u, nil
}

func (m *MemoryStore) UpdateUserProfile(id int, email string, name *string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	u, ok := m.users[id]
	if !ok {
		return ErrNotFound
	}
	for _, other := range m.users {
		if other.ID != id && other.Email == email {
			return ErrDuplicate
		}
	}
	u.Email = email
	u.Name = name
	u.UpdatedAt = m.now()
	m.users[id] = u
	return nil
}

func (m *MemoryStore) CreateParticipant(fullName string, email, phone *string, createdBy int) (model.Participant, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	p := model.Participant{
		ID:        m.nextID(),
		FullName:  fullName,
		Email:     email,
		Phone:     phone,
		CreatedBy: createdBy,
		CreatedAt: now,
		UpdatedAt: now,
	}
	m.participants[p.ID] = p
	return p, nil
}

func (m *MemoryStore) GetParticipant(id int) (model.Participant, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	p, ok := m.participants[id]
	if !ok {
		return model.Participant{}, ErrNotFound
	}
	return p, nil
}

func (m *MemoryStore) ListParticipants(search string) ([]model.Participant, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	needle := strings.ToLower(search)
	out := []model.Participant{}
	for _, p := range m.participants {
		if needle == "" || strings.Contains(strings.ToLower(p.FullName), needle) {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].FullName != out[j].FullName {
			return out[i].FullName < out[j].FullName
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (m *MemoryStore) UpdateParticipant(id int, fullName *string, email, phone *string) (model.Participant, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.participants[id]
	if !ok {
		return model.Participant{}, ErrNotFound
	}
	if fullName != nil {
		p.FullName = *fullName
	}
	if email != nil {
		p.Email = email
	}
	if phone != nil {
		p.Phone = phone
	}
	p.UpdatedAt = m.now()
	m.participants[id] = p
	return p, nil
}

func (m *MemoryStore) SetParticipantPhoto(id int, url string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.participants[id]
	if !ok {
		return ErrNotFound
	}
	p.PhotoURL = &url
	p.UpdatedAt = m.now()
	m.participants[id] = p
	return nil
}

// DeleteParticipant also drops the participant's attendance and
// registrations, mirroring ON DELETE CASCADE.
func (m *MemoryStore) DeleteParticipant(id int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.participants[id]; !ok {
		return ErrNotFound
	}
	delete(m.participants, id)
	for rid, r := range m.attendance {
		if r.ParticipantID == id {
			delete(m.attendance, rid)
		}
	}
	for rid, r := range m.registrations {
		if r.ParticipantID == id {
			delete(m.registrations, rid)
		}
	}
	return nil
}

func (m *MemoryStore) CreateProgram(p model.Program) (model.Program, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	p.ID = m.nextID()
	p.FirstSession = DateOnly(p.FirstSession)
	p.CreatedAt = now
	p.UpdatedAt = now
	m.programs[p.ID] = p
	return p, nil
}

func (m *MemoryStore) GetProgram(id int) (model.Program, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	p, ok := m.programs[id]
	if !ok {
		return model.Program{}, ErrNotFound
	}
	return p, nil
}

func (m *MemoryStore) ListPrograms() ([]model.Program, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]model.Program, 0, len(m.programs))
	for _, p := range m.programs {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (m *MemoryStore) DeleteProgram(id int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.programs[id]; !ok {
		return ErrNotFound
	}
	delete(m.programs, id)
	for rid, r := range m.attendance {
		if r.ProgramID == id {
			delete(m.attendance, rid)
		}
	}
	return nil
}

func (m *MemoryStore) CreateYatra(y model.Yatra) (model.Yatra, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	y.ID = m.nextID()
	y.StartDate = DateOnly(y.StartDate)
	y.EndDate = DateOnly(y.EndDate)
	y.CreatedAt = now
	y.UpdatedAt = now
	m.yatras[y.ID] = y
	return y, nil
}

func (m *MemoryStore) GetYatra(id int) (model.Yatra, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	y, ok := m.yatras[id]
	if !ok {
		return model.Yatra{}, ErrNotFound
	}
	return y, nil
}

func (m *MemoryStore) ListYatras() ([]model.Yatra, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]model.Yatra, 0, len(m.yatras))
	for _, y := range m.yatras {
		out = append(out, y)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].StartDate.Equal(out[j].StartDate) {
			return out[i].StartDate.Before(out[j].StartDate)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (m *MemoryStore) RegisterForYatra(yatraID, participantID, registeredBy int) (model.YatraRegistration, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.yatras[yatraID]; !ok {
		return model.YatraRegistration{}, ErrNotFound
	}
	if _, ok := m.participants[participantID]; !ok {
		return model.YatraRegistration{}, ErrNotFound
	}
	for _, r := range m.registrations {
		if r.YatraID == yatraID && r.ParticipantID == participantID {
			return model.YatraRegistration{}, ErrDuplicate
		}
	}
	r := model.YatraRegistration{
		ID:            m.nextID(),
		YatraID:       yatraID,
		ParticipantID: participantID,
		RegisteredAt:  m.now(),
		RegisteredBy:  registeredBy,
	}
	m.registrations[r.ID] = r
	return r, nil
}

func (m *MemoryStore) ListYatraRegistrations(yatraID int) ([]model.YatraRegistration, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := []model.YatraRegistration{}
	for _, r := range m.registrations {
		if r.YatraID == yatraID {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *MemoryStore) CountYatraRegistrations(yatraID int) (int, error) {
	regs, err := m.ListYatraRegistrations(yatraID)
	return len(regs), err
}

func (m *MemoryStore) CreateAttendance(rec model.AttendanceRecord) (model.AttendanceRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.participants[rec.ParticipantID]; !ok {
		return model.AttendanceRecord{}, ErrNotFound
	}
	if _, ok := m.programs[rec.ProgramID]; !ok {
		return model.AttendanceRecord{}, ErrNotFound
	}
	rec.SessionDate = DateOnly(rec.SessionDate)
	if rec.CheckOut == nil {
		for _, r := range m.attendance {
			if r.CheckOut == nil && r.ParticipantID == rec.ParticipantID &&
				r.ProgramID == rec.ProgramID && r.SessionDate.Equal(rec.SessionDate) {
				return model.AttendanceRecord{}, ErrDuplicate
			}
		}
	}
	rec.ID = m.nextID()
	rec.CreatedAt = m.now()
	m.attendance[rec.ID] = rec
	return rec, nil
}

func (m *MemoryStore) GetOpenAttendance(participantID, programID int, date time.Time) (model.AttendanceRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	day := DateOnly(date)
	var (
		found model.AttendanceRecord
		ok    bool
	)
	for _, r := range m.attendance {
		if r.ParticipantID != participantID || r.ProgramID != programID || r.CheckOut != nil {
			continue
		}
		if !r.SessionDate.Equal(day) {
			continue
		}
		if !ok || r.ID > found.ID {
			found, ok = r, true
		}
	}
	if !ok {
		return model.AttendanceRecord{}, ErrNotFound
	}
	return found, nil
}

func (m *MemoryStore) SetCheckOut(id int, checkOut string) (model.AttendanceRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	r, ok := m.attendance[id]
	if !ok {
		return model.AttendanceRecord{}, ErrNotFound
	}
	r.CheckOut = &checkOut
	m.attendance[id] = r
	return r, nil
}

func (m *MemoryStore) ListAttendanceByParticipant(participantID, limit int) ([]model.AttendanceRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := []model.AttendanceRecord{}
	for _, r := range m.attendance {
		if r.ParticipantID == participantID {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if !a.SessionDate.Equal(b.SessionDate) {
			return a.SessionDate.After(b.SessionDate)
		}
		if a.CheckIn != b.CheckIn {
			return a.CheckIn > b.CheckIn
		}
		return a.ID > b.ID
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *MemoryStore) ListAttendanceByProgram(programID int, date time.Time) ([]model.AttendanceRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	day := DateOnly(date)
	out := []model.AttendanceRecord{}
	for _, r := range m.attendance {
		if r.ProgramID == programID && r.SessionDate.Equal(day) {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CheckIn != out[j].CheckIn {
			return out[i].CheckIn < out[j].CheckIn
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}
