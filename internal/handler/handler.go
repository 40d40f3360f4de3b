package handler

import (
	"github.com/proofid/proofid/internal/config"
	"github.com/proofid/proofid/internal/database"
	"github.com/proofid/proofid/internal/idv"
	"github.com/proofid/proofid/internal/logger"
	"github.com/proofid/proofid/internal/repository"
	"github.com/proofid/proofid/internal/service"
	"github.com/proofid/proofid/internal/session"
)

// Handler holds all HTTP handlers
type Handler struct {
	db          *database.Postgres
	rdb         *database.Redis
	log         *logger.Logger
	cfg         *config.Config
	userRepo    *repository.UserRepository
	mfaRepo     *repository.MFARepository
	eventRepo   *repository.EventRepository
	sessions    *session.Store
	agent       idv.Agent
	backupCodes *service.BackupCodeService
	totpSvc     *service.TOTPService
	personalKey *service.PersonalKeyService
	webauthnSvc *service.WebauthnService
}

// New creates a new Handler instance
func New(
	db *database.Postgres,
	rdb *database.Redis,
	log *logger.Logger,
	cfg *config.Config,
	userRepo *repository.UserRepository,
	mfaRepo *repository.MFARepository,
	eventRepo *repository.EventRepository,
	sessions *session.Store,
	agent idv.Agent,
	backupCodes *service.BackupCodeService,
	totpSvc *service.TOTPService,
	personalKey *service.PersonalKeyService,
	webauthnSvc *service.WebauthnService,
) *Handler {
	return &Handler{
		db:          db,
		rdb:         rdb,
		log:         log,
		cfg:         cfg,
		userRepo:    userRepo,
		mfaRepo:     mfaRepo,
		eventRepo:   eventRepo,
		sessions:    sessions,
		agent:       agent,
		backupCodes: backupCodes,
		totpSvc:     totpSvc,
		personalKey: personalKey,
		webauthnSvc: webauthnSvc,
	}
}
