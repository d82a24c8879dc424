package main

import (
	"flag"

	"zenzspa.app/configs/configsdatabase"
	"zenzspa.app/configs/configslog"
	"zenzspa.app/database"
)

// Rezervasyon şeması aracı: migrasyonları ve başlangıç kayıtlarını
// (varsayılan ayarlar, hizmet kategorileri) uygular.
func main() {
	configslog.InitLogger()
	defer configslog.SyncLogger()

	migrateFlag := flag.Bool("migrate", false, "Rezervasyon ve mutabakat tablolarının migrasyonlarını uygula")
	seedFlag := flag.Bool("seed", false, "Varsayılan iş ayarlarını ve hizmet kategorilerini yükle")
	flag.Parse()

	if !*migrateFlag && !*seedFlag {
		configslog.SLog.Warn("Çalıştırılacak işlem seçilmedi; -migrate ve/veya -seed bayrağı verin.")
		return
	}

	configsdatabase.InitDB()
	defer configsdatabase.CloseDB()

	db := configsdatabase.GetDB()

	configslog.SLog.Infof("zenzspa şema aracı başlıyor: migrate=%t seed=%t", *migrateFlag, *seedFlag)
	database.Initialize(db, *migrateFlag, *seedFlag)
	configslog.SLog.Info("zenzspa şema aracı tamamlandı.")
}
