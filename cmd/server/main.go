// Command server wires the Suraksha worker verification service: stores,
// collaborators, audit pipeline, HTTP router, and background loops.
// Business logic lives in the internal service packages.
package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"golang.org/x/sync/errgroup"

	authhandler "suraksha/internal/auth/handler"
	authservice "suraksha/internal/auth/service"
	userstore "suraksha/internal/auth/store/user"
	"suraksha/internal/auth/token"
	"suraksha/internal/collab/assetstore"
	"suraksha/internal/collab/biometric"
	"suraksha/internal/collab/notifier"
	"suraksha/internal/collab/qr"
	companyhandler "suraksha/internal/company/handler"
	companyservice "suraksha/internal/company/service"
	companystore "suraksha/internal/company/store/company"
	disclosurehandler "suraksha/internal/disclosure/handler"
	httpapi "suraksha/internal/http"
	"suraksha/internal/identity"
	otpservice "suraksha/internal/otp/service"
	challengestore "suraksha/internal/otp/store/challenge"
	"suraksha/internal/platform/config"
	"suraksha/internal/platform/httpserver"
	platformkafka "suraksha/internal/platform/kafka"
	"suraksha/internal/platform/logger"
	"suraksha/internal/platform/metrics"
	platformredis "suraksha/internal/platform/redis"
	"suraksha/internal/ratelimit"
	verificationhandler "suraksha/internal/verification/handler"
	verificationmetrics "suraksha/internal/verification/metrics"
	verificationservice "suraksha/internal/verification/service"
	incidentstore "suraksha/internal/verification/store/incident"
	recordstore "suraksha/internal/verification/store/verification"
	workerhandler "suraksha/internal/worker/handler"
	workermetrics "suraksha/internal/worker/metrics"
	workerservice "suraksha/internal/worker/service"
	workerstore "suraksha/internal/worker/store/worker"
	audit "suraksha/pkg/platform/audit"
	auditkafka "suraksha/pkg/platform/audit/kafka"
	auditpublisher "suraksha/pkg/platform/audit/publisher"
	auditmemory "suraksha/pkg/platform/audit/store/memory"
	auditpg "suraksha/pkg/platform/audit/store/postgres"
	"suraksha/pkg/platform/tx"
)

const authRateLimit = 20

func main() {
	cfg := config.FromEnv()
	log := logger.New()
	slog.SetDefault(log)

	if err := run(cfg, log); err != nil {
		log.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Postgres is optional; without a DSN everything runs on the in-memory
	// stores, which is the local development and demo mode.
	var db *sql.DB
	if cfg.Database.DSN != "" {
		var err error
		db, err = sql.Open("postgres", cfg.Database.DSN)
		if err != nil {
			return err
		}
		defer db.Close()
		if err := db.PingContext(ctx); err != nil {
			return err
		}
		log.Info("connected to postgres")
	} else {
		log.Warn("DATABASE_URL not set, using in-memory stores")
	}

	redisClient, err := platformredis.New(cfg.Redis)
	if err != nil {
		return err
	}
	if redisClient != nil {
		defer redisClient.Close()
		log.Info("connected to redis")
	}

	// Stores.
	var (
		workers     verificationservice.WorkerStore
		records     verificationservice.RecordStore
		incidents   verificationservice.IncidentStore
		users       authservice.UserStore
		auditStore  audit.Store
		otpStore    otpservice.Store
		limiter     ratelimit.Store
		txRunner    tx.Runner
		pgAudit     *auditpg.Store
		workerStore workerservice.Store
		rosterStore companyservice.WorkerStore
		companies   companyservice.Store
	)
	if db != nil {
		pg := workerstore.NewPostgres(db)
		workers, workerStore, rosterStore = pg, pg, pg
		records = recordstore.NewPostgres(db)
		incidents = incidentstore.NewPostgres(db)
		users = userstore.NewPostgres(db)
		companies = companystore.NewPostgres(db)
		pgAudit = auditpg.New(db)
		auditStore = pgAudit
		txRunner = tx.NewSQLRunner(db)
	} else {
		mem := workerstore.NewInMemory()
		workers, workerStore, rosterStore = mem, mem, mem
		records = recordstore.NewInMemory()
		incidents = incidentstore.NewInMemory()
		users = userstore.NewInMemory()
		companies = companystore.NewInMemory()
		auditStore = auditmemory.NewInMemoryStore()
		txRunner = tx.NewMemoryRunner()
	}
	if redisClient != nil {
		otpStore = challengestore.NewRedis(redisClient.Client)
		limiter = ratelimit.NewRedisStore(redisClient.Client)
	} else {
		otpStore = challengestore.NewInMemory()
		limiter = ratelimit.NewInMemory()
	}

	// Audit pipeline: synchronous fail-closed publisher; with Postgres the
	// store is the transactional outbox and Kafka fans events out.
	publisher := auditpublisher.NewPublisher(auditStore, auditpublisher.WithLogger(log))
	defer publisher.Close()

	// Collaborators.
	assets, err := assetstore.NewFilesystem(cfg.Assets.Root)
	if err != nil {
		return err
	}
	var notify notifier.Notifier
	if cfg.Notifier.SendGridAPIKey != "" {
		notify = notifier.NewSendGrid(cfg.Notifier.SendGridAPIKey, cfg.Notifier.FromName, cfg.Notifier.FromEmail)
	} else {
		notify = notifier.NewLog(log)
	}
	qrGen := qr.NewGenerator(cfg.Verification.PublicBaseURL, assets)
	matcher := &biometric.StaticMatcher{Confidence: 82, Live: true}

	// Services.
	tokens := token.NewService(cfg.Server.JWTSigningKey, cfg.Server.TokenTTL)
	otpSvc := otpservice.NewOTPService(otpStore, notify,
		otpservice.WithLogger(log),
		otpservice.WithAuditPublisher(publisher),
	)
	authSvc := authservice.NewAuthService(users, tokens, otpSvc,
		authservice.WithLogger(log),
		authservice.WithAuditPublisher(publisher),
	)
	workerSvc := workerservice.NewWorkerService(workerStore, assets,
		workerservice.WithLogger(log),
		workerservice.WithAuditPublisher(publisher),
		workerservice.WithMetrics(workermetrics.New()),
		workerservice.WithTxRunner(txRunner),
	)
	verificationSvc := verificationservice.NewVerificationService(workers, records, incidents, identity.NewIssuer(),
		verificationservice.WithLogger(log),
		verificationservice.WithAuditPublisher(publisher),
		verificationservice.WithMetrics(verificationmetrics.New()),
		verificationservice.WithTxRunner(txRunner),
		verificationservice.WithMatcher(matcher),
		verificationservice.WithQRGenerator(qrGen),
		verificationservice.WithNotifier(notify),
		verificationservice.WithValidity(time.Duration(cfg.Verification.ValidityDays)*24*time.Hour),
	)
	companySvc := companyservice.NewCompanyService(companies, rosterStore,
		companyservice.WithLogger(log),
		companyservice.WithAuditPublisher(publisher),
		companyservice.WithTxRunner(txRunner),
	)

	router := httpapi.New(httpapi.Config{
		Logger:      log,
		Validator:   tokens,
		Metrics:     metrics.NewHTTP(),
		Auth:        authhandler.New(authSvc, log),
		Worker:      workerhandler.New(workerSvc, log),
		Police:      verificationhandler.New(verificationSvc, log),
		Company:     companyhandler.New(companySvc, log),
		Disclosure:  disclosurehandler.New(workers, publisher, log),
		AuthLimiter: ratelimit.Middleware(limiter, authRateLimit, time.Minute, log),
	})

	srv := httpserver.New(cfg.Server.Addr, router)
	group, ctx := errgroup.WithContext(ctx)

	group.Go(func() error {
		log.Info("starting http server", "addr", cfg.Server.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	group.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	// Expiry sweep: verified workers whose validity window lapsed go back
	// to the police queue.
	group.Go(func() error {
		ticker := time.NewTicker(cfg.Verification.SweepInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return nil
			case <-ticker.C:
				expired, err := verificationSvc.ExpireLapsed(ctx, time.Now().UTC())
				if err != nil {
					log.Error("expiry sweep failed", "error", err)
					continue
				}
				if expired > 0 {
					log.Info("expiry sweep completed", "expired", expired)
				}
			}
		}
	})

	// Kafka fan-out needs the Postgres outbox; without it events stay
	// queryable in the audit store and the relay is skipped.
	if len(cfg.Kafka.Brokers) > 0 && pgAudit != nil {
		kafkaCfg := platformkafka.Config{Brokers: cfg.Kafka.Brokers, ClientID: cfg.Kafka.ClientID}
		client, err := platformkafka.NewClient(kafkaCfg)
		if err != nil {
			return err
		}
		defer client.Close()
		if err := platformkafka.EnsureTopics(ctx, client, 3, auditkafka.Topics()...); err != nil {
			return err
		}

		relay := auditkafka.NewRelay(pgAudit, platformkafka.NewProducer(client), log)
		group.Go(func() error { return relay.Run(ctx) })

		materializer := auditkafka.NewMaterializer(pgAudit, log)
		consumer, err := platformkafka.NewConsumer(kafkaCfg, "suraksha-audit-materializer", auditkafka.Topics(), materializer, log)
		if err != nil {
			return err
		}
		group.Go(func() error { return consumer.Run(ctx) })
		log.Info("audit kafka pipeline started", "brokers", cfg.Kafka.Brokers)
	}

	// Background loops return context.Canceled on a clean shutdown.
	if err := group.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
