package services

import (
	"context"
	"errors"
	"os"
	"sort"
	"testing"
	"time"

	"zenzspa.app/configs/configsapp"
	"zenzspa.app/configs/configslog"
	"zenzspa.app/models"
	"zenzspa.app/pkg/queryparams"
	"zenzspa.app/repositories"

	"go.uber.org/zap"
)

// Testler sahte (in-memory) repository'lerle çalışır ve transaction
// gövdelerini sırayla yürütür: satır kilitleri Postgres'e özgü olduğu için
// gerçek eşzamanlı yarışlar (aynı slota iki create, aynı krediye iki
// uygulama) burada üretilemez. Bu testler kilitli yolun transaction içinde
// gördüğü verilerle doğru karar verdiğini doğrular; yarışları serileştirme
// garantisi Postgres'in FOR UPDATE satır kilitlerine dayanır.

func TestMain(m *testing.M) {
	configslog.Log = zap.NewNop()
	configslog.SLog = configslog.Log.Sugar()
	os.Exit(m.Run())
}

type fakeTxManager struct{}

func (fakeTxManager) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

// countingTxManager üst seviye ve iç içe kapsam açılışlarını ayrı sayar.
// Gerçek yöneticideki gibi iç çağrılar mevcut kapsama katılmış sayılır.
type countingTxManager struct {
	depth  int
	top    int
	nested int
}

func (m *countingTxManager) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	if m.depth == 0 {
		m.top++
	} else {
		m.nested++
	}
	m.depth++
	defer func() { m.depth-- }()
	return fn(ctx)
}

type fakeSettings struct {
	snap configsapp.Snapshot
}

func (f *fakeSettings) Snapshot(ctx context.Context) (*configsapp.Snapshot, error) {
	s := f.snap
	return &s, nil
}

func (f *fakeSettings) Invalidate() {}

func testSettings() *fakeSettings {
	return &fakeSettings{snap: configsapp.Snapshot{
		AdvancePercent:       30,
		CommissionPercent:    10,
		BufferMinutes:        10,
		RescheduleLimit:      2,
		RescheduleMinHours:   24,
		CreditExpiryDays:     90,
		NoShowPolicy:         "PARTIAL",
		NoShowPartialPercent: 50,
		StrikeLimit:          3,
		StrikeWindowDays:     90,
		UnpaidTTLMinutes:     30,
		WaitlistOfferMinutes: 120,
		ActiveAppointmentCap: 3,
	}}
}

// --- Kullanıcılar ---

type fakeUserRepo struct {
	users   map[uint]*models.User
	strikes []models.Strike
}

func newFakeUserRepo(users ...*models.User) *fakeUserRepo {
	r := &fakeUserRepo{users: map[uint]*models.User{}}
	for _, u := range users {
		r.users[u.ID] = u
	}
	return r
}

func (r *fakeUserRepo) FindByID(ctx context.Context, id uint) (*models.User, error) {
	u, ok := r.users[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	copied := *u
	return &copied, nil
}

func (r *fakeUserRepo) FindByIDForUpdate(ctx context.Context, id uint) (*models.User, error) {
	return r.FindByID(ctx, id)
}

func (r *fakeUserRepo) Update(ctx context.Context, user *models.User) error {
	copied := *user
	r.users[user.ID] = &copied
	return nil
}

func (r *fakeUserRepo) CreateStrike(ctx context.Context, strike *models.Strike) error {
	for _, existing := range r.strikes {
		if existing.AppointmentID == strike.AppointmentID {
			return errors.New("duplicate key")
		}
	}
	strike.CreatedAt = time.Now().UTC()
	r.strikes = append(r.strikes, *strike)
	return nil
}

func (r *fakeUserRepo) CountStrikesSince(ctx context.Context, clientID uint, since time.Time) (int64, error) {
	var count int64
	for _, s := range r.strikes {
		if s.ClientID == clientID && s.CreatedAt.After(since) {
			count++
		}
	}
	return count, nil
}

func (r *fakeUserRepo) ListActiveStaff(ctx context.Context) ([]models.User, error) {
	var out []models.User
	for _, u := range r.users {
		if u.Role == models.RoleStaff && u.IsActive {
			out = append(out, *u)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// --- Hizmet kataloğu ---

type fakeServiceRepo struct {
	services   map[uint]models.Service
	categories map[uint]models.ServiceCategory
}

func newFakeServiceRepo(categories []models.ServiceCategory, services []models.Service) *fakeServiceRepo {
	r := &fakeServiceRepo{services: map[uint]models.Service{}, categories: map[uint]models.ServiceCategory{}}
	for _, c := range categories {
		r.categories[c.ID] = c
	}
	for _, s := range services {
		s.Category = r.categories[s.CategoryID]
		r.services[s.ID] = s
	}
	return r
}

func (r *fakeServiceRepo) FindByIDs(ctx context.Context, ids []uint) ([]models.Service, error) {
	var out []models.Service
	for _, id := range ids {
		if s, ok := r.services[id]; ok && s.IsActive {
			out = append(out, s)
		}
	}
	return out, nil
}

func (r *fakeServiceRepo) FindCategoryByID(ctx context.Context, id uint) (*models.ServiceCategory, error) {
	c, ok := r.categories[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return &c, nil
}

func (r *fakeServiceRepo) FindCategoryByIDForUpdate(ctx context.Context, id uint) (*models.ServiceCategory, error) {
	return r.FindCategoryByID(ctx, id)
}

// --- Randevular ---

type fakeAppointmentRepo struct {
	nextID       uint
	appointments map[uint]*models.Appointment
}

func newFakeAppointmentRepo() *fakeAppointmentRepo {
	return &fakeAppointmentRepo{nextID: 1, appointments: map[uint]*models.Appointment{}}
}

func (r *fakeAppointmentRepo) Create(ctx context.Context, appointment *models.Appointment) error {
	appointment.ID = r.nextID
	appointment.CreatedAt = time.Now().UTC()
	for i := range appointment.Items {
		appointment.Items[i].AppointmentID = appointment.ID
	}
	r.nextID++
	copied := *appointment
	r.appointments[appointment.ID] = &copied
	return nil
}

func (r *fakeAppointmentRepo) FindByID(ctx context.Context, id uint) (*models.Appointment, error) {
	a, ok := r.appointments[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	copied := *a
	return &copied, nil
}

func (r *fakeAppointmentRepo) FindByIDForUpdate(ctx context.Context, id uint) (*models.Appointment, error) {
	return r.FindByID(ctx, id)
}

func (r *fakeAppointmentRepo) Update(ctx context.Context, appointment *models.Appointment) error {
	copied := *appointment
	r.appointments[appointment.ID] = &copied
	return nil
}

func (r *fakeAppointmentRepo) ListPaginated(ctx context.Context, clientID *uint, params queryparams.ListParams) ([]models.Appointment, int64, error) {
	var out []models.Appointment
	for _, a := range r.appointments {
		if clientID != nil && a.ClientID != *clientID {
			continue
		}
		out = append(out, *a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, int64(len(out)), nil
}

func (r *fakeAppointmentRepo) countOverlapping(match func(*models.Appointment) bool, start, end time.Time, buffer time.Duration, excludeID uint) int64 {
	var count int64
	for _, a := range r.appointments {
		if a.ID == excludeID || a.IsTerminal() || !match(a) {
			continue
		}
		if a.StartTime.Before(end.Add(buffer)) && a.EndTime.After(start.Add(-buffer)) {
			count++
		}
	}
	return count
}

func (r *fakeAppointmentRepo) CountOverlappingForStaff(ctx context.Context, staffID uint, start, end time.Time, buffer time.Duration, excludeID uint) (int64, error) {
	return r.countOverlapping(func(a *models.Appointment) bool {
		return a.StaffID != nil && *a.StaffID == staffID
	}, start, end, buffer, excludeID), nil
}

func (r *fakeAppointmentRepo) CountOverlappingForCategory(ctx context.Context, categoryID uint, start, end time.Time, buffer time.Duration, excludeID uint) (int64, error) {
	return r.countOverlapping(func(a *models.Appointment) bool {
		return a.StaffID == nil && a.CategoryID == categoryID
	}, start, end, buffer, excludeID), nil
}

func (r *fakeAppointmentRepo) FindOccupiedBetween(ctx context.Context, staffIDs []uint, categoryID uint, from, to time.Time) ([]models.Appointment, error) {
	var out []models.Appointment
	for _, a := range r.appointments {
		if a.IsTerminal() || !a.StartTime.Before(to) || !a.EndTime.After(from) {
			continue
		}
		if len(staffIDs) > 0 {
			matched := false
			for _, id := range staffIDs {
				if a.StaffID != nil && *a.StaffID == id {
					matched = true
					break
				}
			}
			if !matched {
				continue
			}
		} else if a.StaffID != nil || a.CategoryID != categoryID {
			continue
		}
		out = append(out, *a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartTime.Before(out[j].StartTime) })
	return out, nil
}

func (r *fakeAppointmentRepo) CountActiveByClient(ctx context.Context, clientID uint) (int64, error) {
	var count int64
	for _, a := range r.appointments {
		if a.ClientID == clientID && !a.IsTerminal() {
			count++
		}
	}
	return count, nil
}

func (r *fakeAppointmentRepo) FindUnpaidCreatedBefore(ctx context.Context, cutoff time.Time, limit int) ([]models.Appointment, error) {
	var out []models.Appointment
	for _, a := range r.appointments {
		if a.Status == models.AppointmentPendingPayment && a.CreatedAt.Before(cutoff) {
			out = append(out, *a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// --- Ödemeler ---

type fakePaymentRepo struct {
	nextID   uint
	payments map[uint]*models.Payment
}

func newFakePaymentRepo() *fakePaymentRepo {
	return &fakePaymentRepo{nextID: 1, payments: map[uint]*models.Payment{}}
}

func (r *fakePaymentRepo) Create(ctx context.Context, payment *models.Payment) error {
	payment.ID = r.nextID
	r.nextID++
	copied := *payment
	r.payments[payment.ID] = &copied
	return nil
}

func (r *fakePaymentRepo) FindByID(ctx context.Context, id uint) (*models.Payment, error) {
	p, ok := r.payments[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	copied := *p
	return &copied, nil
}

func (r *fakePaymentRepo) FindByIDForUpdate(ctx context.Context, id uint) (*models.Payment, error) {
	return r.FindByID(ctx, id)
}

func (r *fakePaymentRepo) FindByExternalRefForUpdate(ctx context.Context, externalRef string) (*models.Payment, error) {
	for _, p := range r.payments {
		if p.ExternalRef == externalRef {
			copied := *p
			return &copied, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (r *fakePaymentRepo) FindByAppointment(ctx context.Context, appointmentID uint) ([]models.Payment, error) {
	var out []models.Payment
	for _, p := range r.payments {
		if p.AppointmentID != nil && *p.AppointmentID == appointmentID {
			out = append(out, *p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *fakePaymentRepo) Update(ctx context.Context, payment *models.Payment) error {
	copied := *payment
	r.payments[payment.ID] = &copied
	return nil
}

// --- Krediler ---

type fakeCreditRepo struct {
	nextID       uint
	credits      map[uint]*models.ClientCredit
	transactions []models.CreditTransaction
}

func newFakeCreditRepo() *fakeCreditRepo {
	return &fakeCreditRepo{nextID: 1, credits: map[uint]*models.ClientCredit{}}
}

func (r *fakeCreditRepo) Create(ctx context.Context, credit *models.ClientCredit) error {
	credit.ID = r.nextID
	r.nextID++
	copied := *credit
	r.credits[credit.ID] = &copied
	return nil
}

func (r *fakeCreditRepo) FindByID(ctx context.Context, id uint) (*models.ClientCredit, error) {
	c, ok := r.credits[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	copied := *c
	return &copied, nil
}

func (r *fakeCreditRepo) FindByIDForUpdate(ctx context.Context, id uint) (*models.ClientCredit, error) {
	return r.FindByID(ctx, id)
}

func (r *fakeCreditRepo) FindUsableByClientForUpdate(ctx context.Context, clientID uint, now time.Time) ([]models.ClientCredit, error) {
	var out []models.ClientCredit
	for _, c := range r.credits {
		if c.ClientID == clientID && c.Usable(now) {
			out = append(out, *c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ExpiresAt.Before(out[j].ExpiresAt) })
	return out, nil
}

func (r *fakeCreditRepo) Update(ctx context.Context, credit *models.ClientCredit) error {
	copied := *credit
	r.credits[credit.ID] = &copied
	return nil
}

func (r *fakeCreditRepo) ListByClient(ctx context.Context, clientID uint) ([]models.ClientCredit, error) {
	var out []models.ClientCredit
	for _, c := range r.credits {
		if c.ClientID == clientID {
			out = append(out, *c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *fakeCreditRepo) CreateTransaction(ctx context.Context, tx *models.CreditTransaction) error {
	r.transactions = append(r.transactions, *tx)
	return nil
}

func (r *fakeCreditRepo) FindTransactionsByPayment(ctx context.Context, paymentID uint) ([]models.CreditTransaction, error) {
	var out []models.CreditTransaction
	for _, tx := range r.transactions {
		if tx.PaymentID == paymentID {
			out = append(out, tx)
		}
	}
	return out, nil
}

func (r *fakeCreditRepo) SumAppliedByCredit(ctx context.Context, creditID uint) (int64, error) {
	var total int64
	for _, tx := range r.transactions {
		if tx.CreditID == creditID {
			total += tx.AppliedMinor
		}
	}
	return total, nil
}

func (r *fakeCreditRepo) FindStaleAvailable(ctx context.Context, now time.Time, limit int) ([]models.ClientCredit, error) {
	var out []models.ClientCredit
	for _, c := range r.credits {
		if c.Status == models.CreditAvailable && !now.Before(c.ExpiresAt) {
			out = append(out, *c)
		}
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// --- Kuponlar ---

type fakeVoucherRepo struct {
	nextRedemptionID uint
	vouchers         map[string]*models.Voucher
	redemptions      []models.VoucherRedemption
}

func newFakeVoucherRepo(vouchers ...*models.Voucher) *fakeVoucherRepo {
	r := &fakeVoucherRepo{nextRedemptionID: 1, vouchers: map[string]*models.Voucher{}}
	for _, v := range vouchers {
		r.vouchers[v.Code] = v
	}
	return r
}

func (r *fakeVoucherRepo) FindByCode(ctx context.Context, code string) (*models.Voucher, error) {
	v, ok := r.vouchers[code]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	copied := *v
	return &copied, nil
}

func (r *fakeVoucherRepo) FindByCodeForUpdate(ctx context.Context, code string) (*models.Voucher, error) {
	return r.FindByCode(ctx, code)
}

func (r *fakeVoucherRepo) FindByIDForUpdate(ctx context.Context, id uint) (*models.Voucher, error) {
	for _, v := range r.vouchers {
		if v.ID == id {
			copied := *v
			return &copied, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (r *fakeVoucherRepo) Update(ctx context.Context, voucher *models.Voucher) error {
	copied := *voucher
	r.vouchers[voucher.Code] = &copied
	return nil
}

func (r *fakeVoucherRepo) CreateRedemption(ctx context.Context, redemption *models.VoucherRedemption) error {
	for _, existing := range r.redemptions {
		if existing.VoucherID == redemption.VoucherID && existing.AppointmentID == redemption.AppointmentID {
			return errors.New("duplicate key")
		}
	}
	redemption.ID = r.nextRedemptionID
	r.nextRedemptionID++
	r.redemptions = append(r.redemptions, *redemption)
	return nil
}

func (r *fakeVoucherRepo) FindRedemptionsByPayment(ctx context.Context, paymentID uint) ([]models.VoucherRedemption, error) {
	var out []models.VoucherRedemption
	for _, red := range r.redemptions {
		if red.PaymentID == paymentID {
			out = append(out, red)
		}
	}
	return out, nil
}

func (r *fakeVoucherRepo) DeleteRedemption(ctx context.Context, id uint) error {
	kept := r.redemptions[:0]
	for _, red := range r.redemptions {
		if red.ID != id {
			kept = append(kept, red)
		}
	}
	r.redemptions = kept
	return nil
}

// --- Idempotency ---

type fakeIdempotencyRepo struct {
	records map[string]*models.IdempotencyKey
}

func newFakeIdempotencyRepo() *fakeIdempotencyRepo {
	return &fakeIdempotencyRepo{records: map[string]*models.IdempotencyKey{}}
}

func (r *fakeIdempotencyRepo) FindByKeyForUpdate(ctx context.Context, key string) (*models.IdempotencyKey, error) {
	rec, ok := r.records[key]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	copied := *rec
	return &copied, nil
}

func (r *fakeIdempotencyRepo) Create(ctx context.Context, record *models.IdempotencyKey) error {
	if _, exists := r.records[record.Key]; exists {
		return errors.New("duplicate key")
	}
	copied := *record
	r.records[record.Key] = &copied
	return nil
}

func (r *fakeIdempotencyRepo) Update(ctx context.Context, record *models.IdempotencyKey) error {
	copied := *record
	r.records[record.Key] = &copied
	return nil
}

// --- Bildirimler ---

type recordedEvent struct {
	event  NotificationEvent
	userID uint
}

type fakeNotifier struct {
	dispatched []recordedEvent
}

func (n *fakeNotifier) Dispatch(ctx context.Context, event NotificationEvent, userID uint, payload map[string]any) {
	n.dispatched = append(n.dispatched, recordedEvent{event: event, userID: userID})
}

func (n *fakeNotifier) count(event NotificationEvent) int {
	total := 0
	for _, e := range n.dispatched {
		if e.event == event {
			total++
		}
	}
	return total
}

// --- Denetim ---

type fakeAuditRepo struct {
	entries []models.AuditLog
}

func (r *fakeAuditRepo) Create(ctx context.Context, entry *models.AuditLog) error {
	r.entries = append(r.entries, *entry)
	return nil
}

func (r *fakeAuditRepo) hasEvent(event models.AuditEvent) bool {
	for _, e := range r.entries {
		if e.Event == event {
			return true
		}
	}
	return false
}

// --- Komisyon ---

type fakeCommissionRepo struct {
	nextID  uint
	ledgers map[uint]*models.CommissionLedger // paymentID -> satır
}

func newFakeCommissionRepo() *fakeCommissionRepo {
	return &fakeCommissionRepo{nextID: 1, ledgers: map[uint]*models.CommissionLedger{}}
}

func (r *fakeCommissionRepo) Create(ctx context.Context, ledger *models.CommissionLedger) error {
	if _, exists := r.ledgers[ledger.PaymentID]; exists {
		return errors.New("duplicate key")
	}
	ledger.ID = r.nextID
	r.nextID++
	copied := *ledger
	r.ledgers[ledger.PaymentID] = &copied
	return nil
}

func (r *fakeCommissionRepo) FindByPaymentID(ctx context.Context, paymentID uint) (*models.CommissionLedger, error) {
	l, ok := r.ledgers[paymentID]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	copied := *l
	return &copied, nil
}

func (r *fakeCommissionRepo) Update(ctx context.Context, ledger *models.CommissionLedger) error {
	copied := *ledger
	r.ledgers[ledger.PaymentID] = &copied
	return nil
}

// --- Bekleme listesi ---

type fakeWaitlistRepo struct {
	nextID  uint
	entries map[uint]*models.WaitlistEntry
}

func newFakeWaitlistRepo() *fakeWaitlistRepo {
	return &fakeWaitlistRepo{nextID: 1, entries: map[uint]*models.WaitlistEntry{}}
}

func (r *fakeWaitlistRepo) Create(ctx context.Context, entry *models.WaitlistEntry) error {
	entry.ID = r.nextID
	entry.CreatedAt = time.Now().UTC()
	r.nextID++
	copied := *entry
	r.entries[entry.ID] = &copied
	return nil
}

func (r *fakeWaitlistRepo) FindByID(ctx context.Context, id uint) (*models.WaitlistEntry, error) {
	e, ok := r.entries[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	copied := *e
	return &copied, nil
}

func (r *fakeWaitlistRepo) FindByIDForUpdate(ctx context.Context, id uint) (*models.WaitlistEntry, error) {
	return r.FindByID(ctx, id)
}

func (r *fakeWaitlistRepo) Update(ctx context.Context, entry *models.WaitlistEntry) error {
	copied := *entry
	r.entries[entry.ID] = &copied
	return nil
}

func (r *fakeWaitlistRepo) NextQueuedForUpdate(ctx context.Context, categoryID uint, staffID *uint, slotStart time.Time) (*models.WaitlistEntry, error) {
	var candidates []*models.WaitlistEntry
	for _, e := range r.entries {
		if e.Status != models.WaitlistQueued || e.CategoryID != categoryID {
			continue
		}
		if slotStart.Before(e.PreferredFrom) || slotStart.After(e.PreferredTo) {
			continue
		}
		if staffID != nil {
			if e.StaffID != nil && *e.StaffID != *staffID {
				continue
			}
		} else if e.StaffID != nil {
			continue
		}
		candidates = append(candidates, e)
	}
	if len(candidates) == 0 {
		return nil, repositories.ErrNotFound
	}
	sort.Slice(candidates, func(i, j int) bool { return candidates[i].ID < candidates[j].ID })
	copied := *candidates[0]
	return &copied, nil
}

func (r *fakeWaitlistRepo) FindExpiredOffers(ctx context.Context, now time.Time, limit int) ([]models.WaitlistEntry, error) {
	var out []models.WaitlistEntry
	for _, e := range r.entries {
		if e.Status == models.WaitlistOffered && e.OfferDeadline != nil && !now.Before(*e.OfferDeadline) {
			out = append(out, *e)
		}
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *fakeWaitlistRepo) ListByClient(ctx context.Context, clientID uint) ([]models.WaitlistEntry, error) {
	var out []models.WaitlistEntry
	for _, e := range r.entries {
		if e.ClientID == clientID {
			out = append(out, *e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// --- Müsaitlik ---

type fakeAvailabilityRepo struct {
	blocks     []models.StaffAvailability
	exclusions []models.AvailabilityExclusion
}

func (r *fakeAvailabilityRepo) FindBlocksForWeekday(ctx context.Context, weekday time.Weekday, staffIDs []uint) ([]models.StaffAvailability, error) {
	var out []models.StaffAvailability
	for _, b := range r.blocks {
		if b.Weekday != weekday {
			continue
		}
		for _, id := range staffIDs {
			if b.StaffID == id {
				out = append(out, b)
				break
			}
		}
	}
	return out, nil
}

func (r *fakeAvailabilityRepo) FindExclusionsBetween(ctx context.Context, staffIDs []uint, from, to time.Time) ([]models.AvailabilityExclusion, error) {
	var out []models.AvailabilityExclusion
	for _, e := range r.exclusions {
		if !e.StartTime.Before(to) || !e.EndTime.After(from) {
			continue
		}
		for _, id := range staffIDs {
			if e.StaffID == id {
				out = append(out, e)
				break
			}
		}
	}
	return out, nil
}
