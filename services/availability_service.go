package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"zenzspa.app/configs/configsapp"
	"zenzspa.app/models"
	"zenzspa.app/repositories"
)

// AvailabilityServiceError müsaitlik hesaplama hataları.
type AvailabilityServiceError string

func (e AvailabilityServiceError) Error() string { return string(e) }

const (
	ErrAvailInvalidInput    AvailabilityServiceError = "geçersiz müsaitlik sorgusu"
	ErrAvailUnknownServices AvailabilityServiceError = "hizmetlerden en az biri bulunamadı veya pasif"
	ErrAvailMixedCategories AvailabilityServiceError = "hizmetler aynı kategoriden seçilmelidir"
)

// HouseStaffID düşük gözetimli kategorilerin ortak çalışma saatleri bu
// sanal personel ID'si altında StaffAvailability tablosunda tutulur.
const HouseStaffID uint = 0

// Slot müşteriye sunulan aday başlangıç zamanı. Hesaplama salt-okunurdur;
// yetkili müsaitlik kontrolü rezervasyon anında kilit altında tekrarlanır.
type Slot struct {
	Start             time.Time `json:"start"`
	End               time.Time `json:"end"`
	StaffID           *uint     `json:"staff_id,omitempty"`
	RemainingCapacity int       `json:"remaining_capacity"`
}

// IAvailabilityService müsaitlik hesaplama arayüzü.
type IAvailabilityService interface {
	ComputeSlots(ctx context.Context, serviceIDs []uint, date time.Time, staffFilter *uint) ([]Slot, error)
}

// AvailabilityService IAvailabilityService arayüzünü uygular. Hiçbir şey
// yaratmaz, kilitlemez, değiştirmez.
type AvailabilityService struct {
	serviceRepo      repositories.IServiceRepository
	userRepo         repositories.IUserRepository
	availabilityRepo repositories.IAvailabilityRepository
	appointmentRepo  repositories.IAppointmentRepository
	settings         configsapp.ISettingsProvider
}

// NewAvailabilityService yeni bir AvailabilityService örneği oluşturur.
func NewAvailabilityService(settings configsapp.ISettingsProvider) IAvailabilityService {
	return &AvailabilityService{
		serviceRepo:      repositories.NewServiceRepository(),
		userRepo:         repositories.NewUserRepository(),
		availabilityRepo: repositories.NewAvailabilityRepository(),
		appointmentRepo:  repositories.NewAppointmentRepository(),
		settings:         settings,
	}
}

// NewAvailabilityServiceWith bağımlılık enjekte eden kurucu (testler için).
func NewAvailabilityServiceWith(
	serviceRepo repositories.IServiceRepository,
	userRepo repositories.IUserRepository,
	availabilityRepo repositories.IAvailabilityRepository,
	appointmentRepo repositories.IAppointmentRepository,
	settings configsapp.ISettingsProvider,
) IAvailabilityService {
	return &AvailabilityService{
		serviceRepo:      serviceRepo,
		userRepo:         userRepo,
		availabilityRepo: availabilityRepo,
		appointmentRepo:  appointmentRepo,
		settings:         settings,
	}
}

// ComputeSlots istenen gün için rezerve edilebilir slotları hesaplar.
func (s *AvailabilityService) ComputeSlots(ctx context.Context, serviceIDs []uint, date time.Time, staffFilter *uint) ([]Slot, error) {
	if len(serviceIDs) == 0 {
		return nil, ErrAvailInvalidInput
	}

	snap, err := s.settings.Snapshot(ctx)
	if err != nil {
		return nil, err
	}

	_, category, totalDuration, _, err := resolveServices(ctx, s.serviceRepo, serviceIDs)
	if err != nil {
		return nil, err
	}

	dayStart := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC)
	dayEnd := dayStart.Add(24 * time.Hour)
	buffer := time.Duration(snap.BufferMinutes) * time.Minute
	duration := time.Duration(totalDuration) * time.Minute

	if category.LowSupervision {
		return s.computeCategorySlots(ctx, category, dayStart, dayEnd, duration, buffer)
	}
	return s.computeStaffSlots(ctx, category, staffFilter, dayStart, dayEnd, duration, buffer)
}

// computeStaffSlots personel bazlı slotları hesaplar.
func (s *AvailabilityService) computeStaffSlots(ctx context.Context, category *models.ServiceCategory, staffFilter *uint, dayStart, dayEnd time.Time, duration, buffer time.Duration) ([]Slot, error) {
	staff, err := s.userRepo.ListActiveStaff(ctx)
	if err != nil {
		return nil, err
	}
	var staffIDs []uint
	for _, u := range staff {
		if staffFilter != nil && u.ID != *staffFilter {
			continue
		}
		staffIDs = append(staffIDs, u.ID)
	}
	if len(staffIDs) == 0 {
		return []Slot{}, nil
	}

	blocks, err := s.availabilityRepo.FindBlocksForWeekday(ctx, dayStart.Weekday(), staffIDs)
	if err != nil {
		return nil, err
	}
	exclusions, err := s.availabilityRepo.FindExclusionsBetween(ctx, staffIDs, dayStart, dayEnd)
	if err != nil {
		return nil, err
	}
	occupied, err := s.appointmentRepo.FindOccupiedBetween(ctx, staffIDs, category.ID, dayStart.Add(-buffer), dayEnd.Add(buffer))
	if err != nil {
		return nil, err
	}

	var slots []Slot
	for _, block := range blocks {
		window, err := blockWindow(block, dayStart)
		if err != nil {
			continue // bozuk blok kaydı slot üretmez
		}

		busy := collectBusy(block.StaffID, exclusions, occupied, buffer)
		for _, free := range subtractIntervals(window, busy) {
			staffID := block.StaffID
			for _, start := range stepStarts(free, duration) {
				slots = append(slots, Slot{
					Start:             start,
					End:               start.Add(duration),
					StaffID:           &staffID,
					RemainingCapacity: 1,
				})
			}
		}
	}

	sortSlots(slots)
	return slots, nil
}

// computeCategorySlots düşük gözetimli kategoriler için ortak kapasite
// üzerinden slot hesaplar; personel ataması yapılmaz. İşletme kapanışları
// (tatil, bakım) HouseStaffID altındaki istisna kayıtlarıyla düşülür.
func (s *AvailabilityService) computeCategorySlots(ctx context.Context, category *models.ServiceCategory, dayStart, dayEnd time.Time, duration, buffer time.Duration) ([]Slot, error) {
	blocks, err := s.availabilityRepo.FindBlocksForWeekday(ctx, dayStart.Weekday(), []uint{HouseStaffID})
	if err != nil {
		return nil, err
	}
	exclusions, err := s.availabilityRepo.FindExclusionsBetween(ctx, []uint{HouseStaffID}, dayStart, dayEnd)
	if err != nil {
		return nil, err
	}
	closed := make([]interval, 0, len(exclusions))
	for _, exc := range exclusions {
		closed = append(closed, interval{start: exc.StartTime, end: exc.EndTime})
	}
	occupied, err := s.appointmentRepo.FindOccupiedBetween(ctx, nil, category.ID, dayStart.Add(-buffer), dayEnd.Add(buffer))
	if err != nil {
		return nil, err
	}

	var slots []Slot
	for _, block := range blocks {
		window, err := blockWindow(block, dayStart)
		if err != nil {
			continue
		}
		for _, free := range subtractIntervals(window, closed) {
			for _, start := range stepStarts(free, duration) {
				end := start.Add(duration)
				used := countOverlapping(occupied, start.Add(-buffer), end.Add(buffer))
				remaining := category.ConcurrentCapacity - used
				if remaining > 0 {
					slots = append(slots, Slot{Start: start, End: end, RemainingCapacity: remaining})
				}
			}
		}
	}

	sortSlots(slots)
	return slots, nil
}

// resolveServices hizmetleri yükler, hepsinin aktif ve aynı kategoriden
// olduğunu doğrular; toplam süre ve fiyatı döndürür.
func resolveServices(ctx context.Context, repo repositories.IServiceRepository, serviceIDs []uint) ([]models.Service, *models.ServiceCategory, int, int64, error) {
	if len(serviceIDs) == 0 {
		return nil, nil, 0, 0, ErrAvailInvalidInput
	}
	svcList, err := repo.FindByIDs(ctx, serviceIDs)
	if err != nil {
		return nil, nil, 0, 0, err
	}
	if len(svcList) != len(serviceIDs) {
		return nil, nil, 0, 0, ErrAvailUnknownServices
	}

	category := svcList[0].Category
	totalDuration := 0
	var totalPrice int64
	for _, svc := range svcList {
		if svc.CategoryID != category.ID {
			return nil, nil, 0, 0, ErrAvailMixedCategories
		}
		totalDuration += svc.DurationMinutes
		totalPrice += svc.PriceMinor
	}
	if totalDuration <= 0 {
		return nil, nil, 0, 0, ErrAvailInvalidInput
	}
	return svcList, &category, totalDuration, totalPrice, nil
}

// --- Saf aralık aritmetiği ---

type interval struct {
	start time.Time
	end   time.Time
}

// blockWindow haftalık bloğu verilen günün somut aralığına çevirir.
func blockWindow(block models.StaffAvailability, dayStart time.Time) (interval, error) {
	startMin, err := parseClock(block.StartTime)
	if err != nil {
		return interval{}, err
	}
	endMin, err := parseClock(block.EndTime)
	if err != nil {
		return interval{}, err
	}
	if endMin <= startMin {
		return interval{}, errors.New("blok bitişi başlangıçtan önce")
	}
	return interval{
		start: dayStart.Add(time.Duration(startMin) * time.Minute),
		end:   dayStart.Add(time.Duration(endMin) * time.Minute),
	}, nil
}

// parseClock "15:04" formatını gün içi dakikaya çevirir.
func parseClock(v string) (int, error) {
	parts := strings.SplitN(v, ":", 2)
	if len(parts) != 2 {
		return 0, fmt.Errorf("geçersiz saat formatı: %q", v)
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil || h < 0 || h > 23 {
		return 0, fmt.Errorf("geçersiz saat: %q", v)
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil || m < 0 || m > 59 {
		return 0, fmt.Errorf("geçersiz dakika: %q", v)
	}
	return h*60 + m, nil
}

// collectBusy personelin meşgul aralıklarını toplar: istisnalar olduğu gibi,
// randevular tampon süreyle genişletilerek.
func collectBusy(staffID uint, exclusions []models.AvailabilityExclusion, occupied []models.Appointment, buffer time.Duration) []interval {
	var busy []interval
	for _, exc := range exclusions {
		if exc.StaffID == staffID {
			busy = append(busy, interval{start: exc.StartTime, end: exc.EndTime})
		}
	}
	for _, appt := range occupied {
		if appt.StaffID != nil && *appt.StaffID == staffID {
			busy = append(busy, interval{
				start: appt.StartTime.Add(-buffer),
				end:   appt.EndTime.Add(buffer),
			})
		}
	}
	return busy
}

// subtractIntervals window'dan busy aralıklarını çıkarıp kalan boş
// aralıkları döndürür.
func subtractIntervals(window interval, busy []interval) []interval {
	free := []interval{window}
	for _, b := range busy {
		var next []interval
		for _, f := range free {
			// Çakışma yoksa aynen kalır
			if b.end.Before(f.start) || !b.start.Before(f.end) {
				next = append(next, f)
				continue
			}
			if b.start.After(f.start) {
				next = append(next, interval{start: f.start, end: b.start})
			}
			if b.end.Before(f.end) {
				next = append(next, interval{start: b.end, end: f.end})
			}
		}
		free = next
	}
	return free
}

// stepStarts boş aralık içinde duration uzunluğunda randevuların
// başlayabileceği zamanları üretir; adım uzunluğu duration'dır.
func stepStarts(free interval, duration time.Duration) []time.Time {
	var starts []time.Time
	for t := free.start; !t.Add(duration).After(free.end); t = t.Add(duration) {
		starts = append(starts, t)
	}
	return starts
}

func countOverlapping(occupied []models.Appointment, start, end time.Time) int {
	count := 0
	for _, appt := range occupied {
		if appt.StartTime.Before(end) && appt.EndTime.After(start) {
			count++
		}
	}
	return count
}

func sortSlots(slots []Slot) {
	sort.Slice(slots, func(i, j int) bool {
		if !slots[i].Start.Equal(slots[j].Start) {
			return slots[i].Start.Before(slots[j].Start)
		}
		a, b := uint(0), uint(0)
		if slots[i].StaffID != nil {
			a = *slots[i].StaffID
		}
		if slots[j].StaffID != nil {
			b = *slots[j].StaffID
		}
		return a < b
	})
}
