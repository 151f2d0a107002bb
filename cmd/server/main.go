package main

import (
	"database/sql"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/lib/pq"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"dental-intake-agent/internal/intake"
	"dental-intake-agent/internal/oracle"
	"dental-intake-agent/internal/platform/telegram"
	"dental-intake-agent/internal/report"
)

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	// 1. Storage
	var store intake.Store
	if dbConnStr := os.Getenv("DATABASE_URL"); dbConnStr != "" {
		db, err := openDB(dbConnStr)
		if err != nil {
			log.Fatal().Err(err).Msg("could not connect to database")
		}
		runMigrations(dbConnStr)
		store = intake.NewPostgresStore(db)
		log.Info().Msg("using postgres session store")
	} else {
		store = intake.NewMemoryStore()
		log.Info().Msg("DATABASE_URL not set, using in-memory session store")
	}

	// 2. Extraction oracle
	oracleClient := oracle.NewClient()

	// 3. Clinic reporting (optional)
	var reportSvc intake.ReportService
	tgToken := os.Getenv("TELEGRAM_BOT_TOKEN")
	clinicChatID, _ := strconv.ParseInt(os.Getenv("CLINIC_CHAT_ID"), 10, 64)
	if tgToken != "" && clinicChatID != 0 {
		reportSvc = report.NewService(telegram.NewClient(tgToken), clinicChatID)
		log.Info().Int64("chat_id", clinicChatID).Msg("clinic reporting enabled")
	} else {
		log.Warn().Msg("TELEGRAM_BOT_TOKEN or CLINIC_CHAT_ID not set, clinic reports disabled")
	}

	// 4. Service + router
	svc := intake.NewService(store, oracleClient, intake.DefaultSchema(), reportSvc)
	handler := intake.NewHandler(svc)

	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(cors)
	intake.RegisterRoutes(r, handler)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	log.Info().Str("port", port).Msg("server starting")
	if err := http.ListenAndServe(":"+port, r); err != nil {
		log.Fatal().Err(err).Msg("server error")
	}
}

func openDB(connStr string) (*sql.DB, error) {
	var db *sql.DB
	var err error
	for i := 0; i < 10; i++ {
		db, err = sql.Open("postgres", connStr)
		if err == nil {
			err = db.Ping()
		}
		if err == nil {
			return db, nil
		}
		log.Info().Int("attempt", i+1).Msg("waiting for database")
		time.Sleep(2 * time.Second)
	}
	return nil, err
}

func runMigrations(connStr string) {
	m, err := migrate.New("file://migrations", connStr)
	if err != nil {
		log.Error().Err(err).Msg("migration init failed")
		return
	}
	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		log.Error().Err(err).Msg("migration up failed")
		return
	}
	log.Info().Msg("migrations applied")
}

func cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS, PUT, DELETE")
		w.Header().Set("Access-Control-Allow-Headers", "Accept, Content-Type, Content-Length, Accept-Encoding, Authorization")
		if r.Method == http.MethodOptions {
			return
		}
		next.ServeHTTP(w, r)
	})
}
