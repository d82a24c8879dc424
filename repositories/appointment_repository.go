package repositories

import (
	"context"
	"errors"
	"time"

	"zenzspa.app/configs/configsdatabase"
	"zenzspa.app/models"
	"zenzspa.app/pkg/queryparams"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// IAppointmentRepository randevu veritabanı işlemleri için arayüz.
type IAppointmentRepository interface {
	Create(ctx context.Context, appointment *models.Appointment) error
	FindByID(ctx context.Context, id uint) (*models.Appointment, error)
	// FindByIDForUpdate durum geçişi yapan akışlar için satır kilidi alır.
	// Transaction içinde çağrılmalıdır.
	FindByIDForUpdate(ctx context.Context, id uint) (*models.Appointment, error)
	Update(ctx context.Context, appointment *models.Appointment) error
	ListPaginated(ctx context.Context, clientID *uint, params queryparams.ListParams) ([]models.Appointment, int64, error)

	// CountOverlappingForStaff personel için [start-buffer, end+buffer)
	// aralığıyla çakışan terminal olmayan randevu sayısını döndürür.
	// excludeID erteleme akışında randevunun kendisini dışarıda bırakır.
	CountOverlappingForStaff(ctx context.Context, staffID uint, start, end time.Time, buffer time.Duration, excludeID uint) (int64, error)
	// CountOverlappingForCategory düşük gözetimli kategorilerde kapasite
	// kontrolü için çakışan randevu sayısını döndürür.
	CountOverlappingForCategory(ctx context.Context, categoryID uint, start, end time.Time, buffer time.Duration, excludeID uint) (int64, error)

	// FindOccupiedBetween müsaitlik hesaplaması için gün içindeki terminal
	// olmayan randevuları getirir. staffIDs boşsa kategoriye göre filtreler.
	FindOccupiedBetween(ctx context.Context, staffIDs []uint, categoryID uint, from, to time.Time) ([]models.Appointment, error)

	CountActiveByClient(ctx context.Context, clientID uint) (int64, error)
	FindUnpaidCreatedBefore(ctx context.Context, cutoff time.Time, limit int) ([]models.Appointment, error)
}

// AppointmentRepository IAppointmentRepository arayüzünü uygular.
type AppointmentRepository struct {
	db *gorm.DB
}

// NewAppointmentRepository yeni bir AppointmentRepository örneği oluşturur.
func NewAppointmentRepository() IAppointmentRepository {
	return &AppointmentRepository{db: configsdatabase.GetDB()}
}

// NewAppointmentRepositoryWith test ve transaction kullanımında bağlantı enjekte eder.
func NewAppointmentRepositoryWith(db *gorm.DB) IAppointmentRepository {
	return &AppointmentRepository{db: db}
}

// Create yeni randevuyu kalemleriyle birlikte oluşturur.
func (r *AppointmentRepository) Create(ctx context.Context, appointment *models.Appointment) error {
	if appointment == nil || appointment.ClientID == 0 {
		return errors.New("geçersiz randevu kaydı")
	}
	return getDB(ctx, r.db).Create(appointment).Error
}

// FindByID randevuyu kalemleriyle birlikte getirir.
func (r *AppointmentRepository) FindByID(ctx context.Context, id uint) (*models.Appointment, error) {
	if id == 0 {
		return nil, ErrNotFound
	}
	var appointment models.Appointment
	err := getDB(ctx, r.db).Preload("Items").First(&appointment, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &appointment, nil
}

// FindByIDForUpdate randevu satırını FOR UPDATE ile kilitleyerek getirir.
func (r *AppointmentRepository) FindByIDForUpdate(ctx context.Context, id uint) (*models.Appointment, error) {
	if id == 0 {
		return nil, ErrNotFound
	}
	var appointment models.Appointment
	err := getDB(ctx, r.db).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&appointment, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	// Items kilitlenmez, kilit sonrası ayrıca yüklenir.
	if err := getDB(ctx, r.db).Where("appointment_id = ?", id).Find(&appointment.Items).Error; err != nil {
		return nil, err
	}
	return &appointment, nil
}

// ListPaginated randevuları sayfalı listeler. clientID verilirse o müşteriyle
// sınırlar; nil ise tüm kayıtlar (admin görünümü) döner.
func (r *AppointmentRepository) ListPaginated(ctx context.Context, clientID *uint, params queryparams.ListParams) ([]models.Appointment, int64, error) {
	q := getDB(ctx, r.db).Model(&models.Appointment{})
	if clientID != nil {
		q = q.Where("client_id = ?", *clientID)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	sortBy := "start_time"
	if params.SortBy == "created_at" {
		sortBy = "created_at"
	}
	var out []models.Appointment
	err := q.Preload("Items").
		Order(sortBy + " " + params.OrderBy).
		Offset(params.Offset()).
		Limit(params.PerPage).
		Find(&out).Error
	return out, total, err
}

// Update randevuyu Save ile günceller.
func (r *AppointmentRepository) Update(ctx context.Context, appointment *models.Appointment) error {
	return getDB(ctx, r.db).Save(appointment).Error
}

// overlapQuery çakışma koşulu: start < rangeEnd AND end > rangeStart.
// Tampon süre aralığı iki yönde genişletir.
func overlapQuery(db *gorm.DB, start, end time.Time, buffer time.Duration, excludeID uint) *gorm.DB {
	q := db.Model(&models.Appointment{}).
		Where("status IN ?", models.NonTerminalAppointmentStatuses).
		Where("start_time < ? AND end_time > ?", end.Add(buffer), start.Add(-buffer))
	if excludeID != 0 {
		q = q.Where("id <> ?", excludeID)
	}
	return q
}

func (r *AppointmentRepository) CountOverlappingForStaff(ctx context.Context, staffID uint, start, end time.Time, buffer time.Duration, excludeID uint) (int64, error) {
	var count int64
	err := overlapQuery(getDB(ctx, r.db), start, end, buffer, excludeID).
		Where("staff_id = ?", staffID).
		Count(&count).Error
	return count, err
}

func (r *AppointmentRepository) CountOverlappingForCategory(ctx context.Context, categoryID uint, start, end time.Time, buffer time.Duration, excludeID uint) (int64, error) {
	var count int64
	err := overlapQuery(getDB(ctx, r.db), start, end, buffer, excludeID).
		Where("category_id = ? AND staff_id IS NULL", categoryID).
		Count(&count).Error
	return count, err
}

func (r *AppointmentRepository) FindOccupiedBetween(ctx context.Context, staffIDs []uint, categoryID uint, from, to time.Time) ([]models.Appointment, error) {
	q := getDB(ctx, r.db).Model(&models.Appointment{}).
		Where("status IN ?", models.NonTerminalAppointmentStatuses).
		Where("start_time < ? AND end_time > ?", to, from)
	if len(staffIDs) > 0 {
		q = q.Where("staff_id IN ?", staffIDs)
	} else {
		q = q.Where("category_id = ? AND staff_id IS NULL", categoryID)
	}
	var out []models.Appointment
	if err := q.Order("start_time ASC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *AppointmentRepository) CountActiveByClient(ctx context.Context, clientID uint) (int64, error) {
	var count int64
	err := getDB(ctx, r.db).Model(&models.Appointment{}).
		Where("client_id = ? AND status IN ?", clientID, models.NonTerminalAppointmentStatuses).
		Count(&count).Error
	return count, err
}

// FindUnpaidCreatedBefore zaman aşımı süpürmesi için ödenmemiş randevuları getirir.
func (r *AppointmentRepository) FindUnpaidCreatedBefore(ctx context.Context, cutoff time.Time, limit int) ([]models.Appointment, error) {
	var out []models.Appointment
	err := getDB(ctx, r.db).
		Where("status = ? AND created_at < ?", models.AppointmentPendingPayment, cutoff).
		Order("created_at ASC").
		Limit(limit).
		Find(&out).Error
	return out, err
}
