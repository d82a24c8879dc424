package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"zenzspa.app/configs/configsapp"
	"zenzspa.app/configs/configsdatabase"
	"zenzspa.app/configs/configslog"
	"zenzspa.app/pkg/gateway"
	"zenzspa.app/pkg/mq"
	"zenzspa.app/pkg/scheduler"
	"zenzspa.app/routes"
	"zenzspa.app/services"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

func main() {
	configslog.InitLogger()
	defer configslog.SyncLogger()

	cfg := configsapp.LoadApp()

	configsdatabase.InitDB()
	defer configsdatabase.CloseDB()
	db := configsdatabase.GetDB()

	// İş ayarları: Setting tablosundan kısa TTL ile okunur.
	settings := configsapp.NewSettingsProvider(db, 30*time.Second)

	// Bildirim kuyruğu; bağlantı kurulamazsa uygulama bildirimsiz çalışır.
	publisher, err := mq.NewPublisher(cfg.AMQPURL, cfg.AMQPExchange)
	if err != nil {
		configslog.Log.Warn("AMQP bağlantısı kurulamadı, bildirimler devre dışı", zap.Error(err))
		publisher = nil
	} else {
		defer publisher.Close()
	}
	notifier := services.NewNotificationService(publisher)

	gatewayClient := gateway.NewClient(cfg.GatewayBaseURL, cfg.GatewayAPIKey)
	txManager := services.NewGormTxManager(db)

	// Servis wiring
	availabilityService := services.NewAvailabilityService(settings)
	appointmentService := services.NewAppointmentService(settings, txManager, notifier)
	paymentService := services.NewPaymentService(settings, txManager, gatewayClient, cfg.GatewayWebhookSecret, notifier)
	waitlistService := services.NewWaitlistService(settings, txManager, appointmentService, notifier)
	creditService := services.NewCreditService(settings, txManager, notifier)

	// Randevu iptali boşalan slotu bekleme listesine teklif eder.
	appointmentService.SetRecycler(waitlistService)

	// Arkaplan süpürmeleri
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	sched := scheduler.New(
		scheduler.Job{Name: "unpaid_expiry", Interval: time.Minute, Run: appointmentService.ExpireUnpaid},
		scheduler.Job{Name: "waitlist_offer_expiry", Interval: time.Minute, Run: waitlistService.ExpireOffers},
		scheduler.Job{Name: "credit_expiry", Interval: time.Hour, Run: creditService.ExpireCredits},
	)
	sched.Start(ctx)

	// HTTP sunucusu
	app := fiber.New(fiber.Config{
		AppName:      "zenzspa",
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	})
	routes.SetupRoutes(app, routes.Deps{
		Availability: availabilityService,
		Appointments: appointmentService,
		Payments:     paymentService,
		Waitlist:     waitlistService,
		Credits:      creditService,
	})

	go func() {
		configslog.SLog.Infof("HTTP sunucusu dinlemede: %s", cfg.HTTPAddr)
		if err := app.Listen(cfg.HTTPAddr); err != nil {
			configslog.Log.Fatal("HTTP sunucusu başlatılamadı", zap.Error(err))
		}
	}()

	<-ctx.Done()
	configslog.SLog.Info("Kapatma sinyali alındı, sunucu durduruluyor...")
	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		configslog.Log.Error("Sunucu düzgün kapatılamadı", zap.Error(err))
	}
	configslog.SLog.Info("Sunucu durduruldu.")
}
