package httpapi

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"spbunet/api/internal/store"
	"spbunet/api/internal/supabase"

	"github.com/google/uuid"
)

type memStore struct {
	mu        sync.Mutex
	nextID    int64
	regions   map[int64]store.Region
	locations map[int64]store.Location
	fuel      map[int64]store.FuelSale
	lpg       map[int64]store.LPGSale
	stats     map[string]store.RegionStat
	settings  store.Settings
	sessions  map[uuid.UUID]store.AdminSession

	recomputeErr error
}

func newMemStore() *memStore {
	return &memStore{
		regions:   map[int64]store.Region{},
		locations: map[int64]store.Location{},
		fuel:      map[int64]store.FuelSale{},
		lpg:       map[int64]store.LPGSale{},
		stats:     map[string]store.RegionStat{},
		sessions:  map[uuid.UUID]store.AdminSession{},
	}
}

func (m *memStore) id() int64 {
	m.nextID++
	return m.nextID
}

func (m *memStore) ListRegions(context.Context) ([]store.Region, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []store.Region{}
	for _, r := range m.regions {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *memStore) GetRegion(_ context.Context, id int64) (store.Region, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.regions[id]
	if !ok {
		return store.Region{}, store.ErrNotFound
	}
	return r, nil
}

func (m *memStore) putRegion(id int64, in store.RegionInput) (store.Region, error) {
	for _, r := range m.regions {
		if r.Slug == in.Slug && r.ID != id {
			return store.Region{}, store.ErrConflict
		}
	}
	r := store.Region{ID: id, Name: in.Name, Slug: in.Slug, Color: in.Color, Lat: in.Lat, Lng: in.Lng,
		SPBUCount: in.SPBUCount, SPBECount: in.SPBECount, UpdatedAt: time.Now()}
	m.regions[id] = r
	return r, nil
}

func (m *memStore) CreateRegion(_ context.Context, in store.RegionInput) (store.Region, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.putRegion(m.id(), in)
}

func (m *memStore) UpdateRegion(_ context.Context, id int64, in store.RegionInput) (store.Region, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.regions[id]; !ok {
		return store.Region{}, store.ErrNotFound
	}
	return m.putRegion(id, in)
}

func (m *memStore) DeleteRegion(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.regions[id]; !ok {
		return store.ErrNotFound
	}
	delete(m.regions, id)
	for lid, l := range m.locations {
		if l.RegionID == id {
			delete(m.locations, lid)
		}
	}
	return nil
}

func (m *memStore) ListLocations(_ context.Context, f store.LocationFilter) ([]store.Location, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []store.Location{}
	for _, l := range m.locations {
		if f.RegionID != 0 && l.RegionID != f.RegionID {
			continue
		}
		if f.Type != "" && l.Type != f.Type {
			continue
		}
		out = append(out, l)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memStore) GetLocation(_ context.Context, id int64) (store.Location, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.locations[id]
	if !ok {
		return store.Location{}, store.ErrNotFound
	}
	return l, nil
}

func (m *memStore) putLocation(id int64, in store.LocationInput) (store.Location, error) {
	if _, ok := m.regions[in.RegionID]; !ok {
		return store.Location{}, store.ErrBadReference
	}
	l := store.Location{ID: id, RegionID: in.RegionID, Name: in.Name, Type: in.Type, Address: in.Address,
		Hours: in.Hours, Phone: in.Phone, Services: in.Services, Lat: in.Lat, Lng: in.Lng}
	m.locations[id] = l
	return l, nil
}

func (m *memStore) CreateLocation(_ context.Context, in store.LocationInput) (store.Location, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.putLocation(m.id(), in)
}

func (m *memStore) UpdateLocation(_ context.Context, id int64, in store.LocationInput) (store.Location, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.locations[id]; !ok {
		return store.Location{}, store.ErrNotFound
	}
	return m.putLocation(id, in)
}

func (m *memStore) DeleteLocation(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.locations[id]; !ok {
		return store.ErrNotFound
	}
	delete(m.locations, id)
	return nil
}

func salesMatch(f store.SalesFilter, locationID int64, period string) bool {
	return (f.LocationID == 0 || f.LocationID == locationID) && (f.Period == "" || f.Period == period)
}

func (m *memStore) ListFuelSales(_ context.Context, f store.SalesFilter) ([]store.FuelSale, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []store.FuelSale{}
	for _, s := range m.fuel {
		if salesMatch(f, s.LocationID, s.Period) {
			s.LocationName = m.locations[s.LocationID].Name
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memStore) UpsertFuelSales(_ context.Context, in []store.FuelSale) ([]store.FuelSale, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range in {
		if _, ok := m.locations[s.LocationID]; !ok {
			return nil, store.ErrBadReference
		}
	}
	out := make([]store.FuelSale, 0, len(in))
	for _, s := range in {
		s.ID = 0
		for id, cur := range m.fuel {
			if cur.LocationID == s.LocationID && cur.Period == s.Period && cur.Product == s.Product {
				s.ID = id
			}
		}
		if s.ID == 0 {
			s.ID = m.id()
		}
		m.fuel[s.ID] = s
		out = append(out, s)
	}
	return out, nil
}

func (m *memStore) DeleteFuelSale(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.fuel[id]; !ok {
		return store.ErrNotFound
	}
	delete(m.fuel, id)
	return nil
}

func (m *memStore) ListLPGSales(_ context.Context, f store.SalesFilter) ([]store.LPGSale, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []store.LPGSale{}
	for _, s := range m.lpg {
		if salesMatch(f, s.LocationID, s.Period) {
			s.LocationName = m.locations[s.LocationID].Name
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memStore) UpsertLPGSales(_ context.Context, in []store.LPGSale) ([]store.LPGSale, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range in {
		if _, ok := m.locations[s.LocationID]; !ok {
			return nil, store.ErrBadReference
		}
	}
	out := make([]store.LPGSale, 0, len(in))
	for _, s := range in {
		s.ID = 0
		for id, cur := range m.lpg {
			if cur.LocationID == s.LocationID && cur.Period == s.Period && cur.Product == s.Product {
				s.ID = id
			}
		}
		if s.ID == 0 {
			s.ID = m.id()
		}
		m.lpg[s.ID] = s
		out = append(out, s)
	}
	return out, nil
}

func (m *memStore) DeleteLPGSale(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.lpg[id]; !ok {
		return store.ErrNotFound
	}
	delete(m.lpg, id)
	return nil
}

func (m *memStore) ListRegionStats(context.Context) ([]store.RegionStat, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []store.RegionStat{}
	for _, st := range m.stats {
		out = append(out, st)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RegionKey < out[j].RegionKey })
	return out, nil
}

func (m *memStore) GetRegionStat(_ context.Context, key string) (store.RegionStat, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	st, ok := m.stats[key]
	if !ok {
		return store.RegionStat{}, store.ErrNotFound
	}
	return st, nil
}

func (m *memStore) UpsertRegionStat(_ context.Context, st store.RegionStat) (store.RegionStat, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if store.IsAllKey(st.RegionKey) {
		return store.RegionStat{}, store.ErrReservedKey
	}
	st.UpdatedAt = time.Now()
	m.stats[st.RegionKey] = st
	return st, nil
}

func (m *memStore) DeleteRegionStat(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if store.IsAllKey(key) {
		return store.ErrReservedKey
	}
	if _, ok := m.stats[key]; !ok {
		return store.ErrNotFound
	}
	delete(m.stats, key)
	return nil
}

func (m *memStore) RecomputeAll(context.Context) (store.RegionStat, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.recomputeErr != nil {
		return store.RegionStat{}, m.recomputeErr
	}
	rows := make([]store.RegionStat, 0, len(m.stats))
	for _, st := range m.stats {
		rows = append(rows, st)
	}
	all := store.SumStats(rows)
	m.stats[store.AllKey] = all
	return all, nil
}

func (m *memStore) GetSettings(context.Context) (store.Settings, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.settings, nil
}

func (m *memStore) PutSettings(_ context.Context, svg string) (store.Settings, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.settings = store.Settings{MapSVG: svg, UpdatedAt: time.Now()}
	return m.settings, nil
}

func (m *memStore) CreateSession(_ context.Context, sess store.AdminSession) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[sess.ID] = sess
	return nil
}

func (m *memStore) GetSession(_ context.Context, id uuid.UUID) (store.AdminSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return store.AdminSession{}, store.ErrNotFound
	}
	return s, nil
}

func (m *memStore) DeleteSession(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
	return nil
}

func (m *memStore) sessionCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

type fakeAuth struct {
	mu        sync.Mutex
	users     map[string]*supabase.User
	passwords map[string]string
	otps      map[string]string // email -> valid token
	signIns   int
	otpSent   int
	signedOut []string
}

func newFakeAuth() *fakeAuth {
	return &fakeAuth{
		users:     map[string]*supabase.User{},
		passwords: map[string]string{},
		otps:      map[string]string{},
	}
}

func (f *fakeAuth) addUser(email, password string) *supabase.User {
	f.mu.Lock()
	defer f.mu.Unlock()
	u := &supabase.User{ID: "user-" + email, Email: email}
	f.users[email] = u
	f.passwords[email] = password
	return u
}

func (f *fakeAuth) session(email string) *supabase.Session {
	return &supabase.Session{AccessToken: "at-" + email, RefreshToken: "rt-" + email, User: f.users[email]}
}

func (f *fakeAuth) SignInWithPassword(_ context.Context, email, password string) (*supabase.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.signIns++
	if pw, ok := f.passwords[email]; !ok || pw != password {
		return nil, &supabase.Error{StatusCode: 400, Code: "invalid_credentials", Message: "Invalid login credentials"}
	}
	return f.session(email), nil
}

func (f *fakeAuth) SendOTP(context.Context, string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.otpSent++
	return nil
}

func (f *fakeAuth) VerifyOTP(_ context.Context, email, token, _ string) (*supabase.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if want, ok := f.otps[email]; !ok || want != token {
		return nil, &supabase.Error{StatusCode: 403, Code: "otp_expired", Message: "Token has expired or is invalid"}
	}
	return f.session(email), nil
}

func (f *fakeAuth) GetUser(_ context.Context, accessToken string) (*supabase.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[strings.TrimPrefix(accessToken, "at-")]
	if !ok {
		return nil, &supabase.Error{StatusCode: 401, Message: "invalid JWT"}
	}
	return u, nil
}

func (f *fakeAuth) SignOut(_ context.Context, accessToken string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.signedOut = append(f.signedOut, accessToken)
	return nil
}

func (f *fakeAuth) CreateUser(_ context.Context, email, _ string) (*supabase.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.users[email]; ok {
		return nil, &supabase.Error{StatusCode: 422, Code: "email_exists", Message: "A user with this email address has already been registered"}
	}
	u := &supabase.User{ID: "user-" + email, Email: email}
	f.users[email] = u
	return u, nil
}

func (f *fakeAuth) FindUserByEmail(_ context.Context, email string) (*supabase.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[strings.ToLower(email)]
	if !ok {
		return nil, supabase.ErrUserNotFound
	}
	return u, nil
}
