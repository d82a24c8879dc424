package migrations

import (
	"zenzspa.app/configs/configslog"
	"zenzspa.app/models"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

func MigrateCreditsTables(db *gorm.DB) error {
	configslog.SLog.Info("Client_credits, credit_transactions, vouchers ve voucher_redemptions tabloları migrate ediliyor...")
	err := db.AutoMigrate(
		&models.ClientCredit{},
		&models.CreditTransaction{},
		&models.Voucher{},
		&models.VoucherRedemption{},
	)
	if err != nil {
		configslog.Log.Error("Kredi tabloları migrate edilemedi", zap.Error(err))
		return err
	}
	configslog.SLog.Info("Kredi tabloları migrate işlemi tamamlandı.")
	return nil
}
