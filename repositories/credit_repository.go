package repositories

import (
	"context"
	"errors"
	"time"

	"zenzspa.app/configs/configsdatabase"
	"zenzspa.app/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ICreditRepository müşteri kredisi veritabanı işlemleri için arayüz.
type ICreditRepository interface {
	Create(ctx context.Context, credit *models.ClientCredit) error
	FindByID(ctx context.Context, id uint) (*models.ClientCredit, error)
	// FindByIDForUpdate kredi düşümü için satır kilidi alır.
	FindByIDForUpdate(ctx context.Context, id uint) (*models.ClientCredit, error)
	// FindUsableByClientForUpdate harcanabilir kredileri son kullanma
	// tarihine göre kilitleyerek getirir (önce dolacak olan harcanır).
	FindUsableByClientForUpdate(ctx context.Context, clientID uint, now time.Time) ([]models.ClientCredit, error)
	Update(ctx context.Context, credit *models.ClientCredit) error
	ListByClient(ctx context.Context, clientID uint) ([]models.ClientCredit, error)

	CreateTransaction(ctx context.Context, tx *models.CreditTransaction) error
	SumAppliedByCredit(ctx context.Context, creditID uint) (int64, error)
	// FindTransactionsByPayment ödemeye uygulanmış kredi hareketlerini
	// döndürür; başarısız ödemede iade için kullanılır.
	FindTransactionsByPayment(ctx context.Context, paymentID uint) ([]models.CreditTransaction, error)

	// FindStaleAvailable süresi geçtiği halde hâlâ AVAILABLE görünen
	// kredileri süpürme için getirir.
	FindStaleAvailable(ctx context.Context, now time.Time, limit int) ([]models.ClientCredit, error)
}

// CreditRepository ICreditRepository arayüzünü uygular.
type CreditRepository struct {
	db *gorm.DB
}

// NewCreditRepository yeni bir CreditRepository örneği oluşturur.
func NewCreditRepository() ICreditRepository {
	return &CreditRepository{db: configsdatabase.GetDB()}
}

// NewCreditRepositoryWith bağlantı enjekte eden kurucu.
func NewCreditRepositoryWith(db *gorm.DB) ICreditRepository {
	return &CreditRepository{db: db}
}

func (r *CreditRepository) Create(ctx context.Context, credit *models.ClientCredit) error {
	if credit == nil || credit.ClientID == 0 || credit.OriginalMinor <= 0 {
		return errors.New("geçersiz kredi kaydı")
	}
	return getDB(ctx, r.db).Create(credit).Error
}

func (r *CreditRepository) FindByID(ctx context.Context, id uint) (*models.ClientCredit, error) {
	var credit models.ClientCredit
	err := getDB(ctx, r.db).First(&credit, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &credit, nil
}

func (r *CreditRepository) FindByIDForUpdate(ctx context.Context, id uint) (*models.ClientCredit, error) {
	var credit models.ClientCredit
	err := getDB(ctx, r.db).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&credit, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &credit, nil
}

func (r *CreditRepository) FindUsableByClientForUpdate(ctx context.Context, clientID uint, now time.Time) ([]models.ClientCredit, error) {
	var out []models.ClientCredit
	err := getDB(ctx, r.db).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("client_id = ? AND status = ? AND remaining_minor > 0 AND expires_at > ?",
			clientID, models.CreditAvailable, now).
		Order("expires_at ASC").
		Find(&out).Error
	return out, err
}

func (r *CreditRepository) Update(ctx context.Context, credit *models.ClientCredit) error {
	return getDB(ctx, r.db).Save(credit).Error
}

func (r *CreditRepository) ListByClient(ctx context.Context, clientID uint) ([]models.ClientCredit, error) {
	var out []models.ClientCredit
	err := getDB(ctx, r.db).
		Where("client_id = ?", clientID).
		Order("created_at DESC").
		Find(&out).Error
	return out, err
}

func (r *CreditRepository) CreateTransaction(ctx context.Context, tx *models.CreditTransaction) error {
	return getDB(ctx, r.db).Create(tx).Error
}

func (r *CreditRepository) SumAppliedByCredit(ctx context.Context, creditID uint) (int64, error) {
	var total int64
	err := getDB(ctx, r.db).Model(&models.CreditTransaction{}).
		Where("credit_id = ?", creditID).
		Select("COALESCE(SUM(applied_minor), 0)").
		Scan(&total).Error
	return total, err
}

func (r *CreditRepository) FindTransactionsByPayment(ctx context.Context, paymentID uint) ([]models.CreditTransaction, error) {
	var out []models.CreditTransaction
	err := getDB(ctx, r.db).
		Where("payment_id = ?", paymentID).
		Order("id ASC").
		Find(&out).Error
	return out, err
}

func (r *CreditRepository) FindStaleAvailable(ctx context.Context, now time.Time, limit int) ([]models.ClientCredit, error) {
	var out []models.ClientCredit
	err := getDB(ctx, r.db).
		Where("status = ? AND expires_at <= ?", models.CreditAvailable, now).
		Order("expires_at ASC").
		Limit(limit).
		Find(&out).Error
	return out, err
}
