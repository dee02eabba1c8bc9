package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/corepay/payroll-engine-go/internal/config"
	appHTTP "github.com/corepay/payroll-engine-go/internal/handler/http"
	"github.com/corepay/payroll-engine-go/internal/pkg/cron"
	"github.com/corepay/payroll-engine-go/internal/pkg/currency"
	"github.com/corepay/payroll-engine-go/internal/pkg/database"
	"github.com/corepay/payroll-engine-go/internal/pkg/email"
	"github.com/corepay/payroll-engine-go/internal/pkg/jwt"
	"github.com/corepay/payroll-engine-go/internal/repository/postgresql"
	awardService "github.com/corepay/payroll-engine-go/internal/service/award"
	"github.com/corepay/payroll-engine-go/internal/service/calculator"
	draftService "github.com/corepay/payroll-engine-go/internal/service/draft"
	"github.com/corepay/payroll-engine-go/internal/service/exceptions"
	payslipService "github.com/corepay/payroll-engine-go/internal/service/payslip"
	runService "github.com/corepay/payroll-engine-go/internal/service/run"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Println("Error loading config:", err)
		return
	}

	db, err := database.NewPostgreSQLDB(cfg.DatabaseURL())
	if err != nil {
		fmt.Println("Error connecting to database:", err)
		return
	}

	runRepo := postgresql.NewRunRepository(db)
	detailRepo := postgresql.NewDetailRepository(db)
	awardRepo := postgresql.NewAwardRepository(db)
	payslipRepo := postgresql.NewPayslipRepository(db)
	configRepo := postgresql.NewConfigsetRepository(db)
	workforceRepo := postgresql.NewWorkforceRepository(db)
	timeoffRepo := postgresql.NewTimeoffRepository(db)
	refundRepo := postgresql.NewRefundRepository(db)

	jwtService := jwt.NewJWTService(cfg.JWT.Secret)
	notifier := email.NewEmailNotifier(cfg.SMTP)
	converter := currency.NewConverter(currency.NewStaticRates())
	policy := calculator.NewKeywordPolicy()

	exceptionSvc := exceptions.NewExceptionService(detailRepo, runRepo)
	calcSvc := calculator.NewCalculatorService(workforceRepo, configRepo, timeoffRepo, refundRepo, exceptionSvc, policy, converter)
	draftSvc := draftService.NewDraftService(runRepo, detailRepo, workforceRepo, configRepo, awardRepo, calcSvc, exceptionSvc)
	runSvc := runService.NewRunService(runRepo, detailRepo, awardRepo, notifier)
	payslipSvc := payslipService.NewPayslipService(
		runRepo,
		detailRepo,
		payslipRepo,
		configRepo,
		workforceRepo,
		awardRepo,
		refundRepo,
		policy,
		converter,
		exceptionSvc,
		notifier,
	)
	awardSvc := awardService.NewAwardService(awardRepo)

	runHandler := appHTTP.NewRunHandler(runSvc, draftSvc, exceptionSvc, detailRepo)
	payslipHandler := appHTTP.NewPayslipHandler(payslipSvc)
	awardHandler := appHTTP.NewAwardHandler(awardSvc)

	router := appHTTP.NewRouter(cfg.App.Env, jwtService, runHandler, payslipHandler, awardHandler)

	scheduler := cron.NewScheduler()
	scheduler.Register("award-sweep", 6*time.Hour, func(ctx context.Context) error {
		_, err := draftSvc.SweepAwards(ctx)
		return err
	})
	scheduler.Start()
	defer scheduler.Stop()

	port := fmt.Sprintf(":%d", cfg.App.Port)
	fmt.Printf("Server running at http://localhost%s\n", port)
	if err := http.ListenAndServe(port, router); err != nil {
		fmt.Println("Server error:", err)
	}
}
