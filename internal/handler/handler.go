package handler

import (
	"github.com/cloudrad-dev/schedule-manager/backend/internal/config"
	"github.com/cloudrad-dev/schedule-manager/backend/internal/domain"
	"github.com/cloudrad-dev/schedule-manager/backend/internal/repository"
	"github.com/cloudrad-dev/schedule-manager/backend/internal/scheduler"
	"github.com/go-chi/chi/v5"
	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
)

type Handler struct {
	validate    *validator.Validate
	config      *config.Config
	repository  *repository.Repository
	scheduler   *scheduler.Scheduler
	translator  ut.Translator
	mailChannel *amqp.Channel
	redisClient *redis.Client

	Mux *chi.Mux
}

func NewHandler(cfg *config.Config, repo *repository.Repository, sched *scheduler.Scheduler, mailCh *amqp.Channel, rdb *redis.Client) (*Handler, error) {
	validate := validator.New(validator.WithRequiredStructEnabled())
	en := en.New()
	uni := ut.New(en, en)
	trans, _ := uni.GetTranslator("en")
	if err := en_translations.RegisterDefaultTranslations(validate, trans); err != nil {
		return nil, err
	}

	return &Handler{
		validate:    validate,
		config:      cfg,
		repository:  repo,
		scheduler:   sched,
		translator:  trans,
		mailChannel: mailCh,
		redisClient: rdb,

		Mux: chi.NewRouter(),
	}, nil
}

func (h *Handler) RegisterRoutes() {
	h.Mux.Use(h.logger)
	h.Mux.Use(h.recoverer)

	h.Mux.Route("/auth", func(r chi.Router) {
		r.Post("/login", h.Login)
		r.Post("/logout", h.Logout)
		r.Route("/reset-password", func(r chi.Router) {
			r.Post("/require", h.RequireResetPassword)
			r.Post("/confirm", h.ConfirmResetPassword)
		})
	})

	// everything below requires a logged-in user
	h.Mux.Group(func(r chi.Router) {
		r.Use(h.auth)

		r.Route("/my-info", func(r chi.Router) {
			r.Use(h.myInfo)
			r.Get("/", h.GetMyInfo)
			r.Patch("/password", h.UpdateMyPassword)
			r.Route("/update-email", func(r chi.Router) {
				r.Post("/require", h.RequireUpdateEmail)
				r.Post("/confirm", h.ConfirmUpdateEmail)
			})
			r.Get("/schedule", h.GetMySchedule)
			r.Get("/upcoming-shifts", h.GetMyUpcomingShifts)
		})

		r.Route("/users", func(r chi.Router) {
			r.With(h.RequiredRole([]domain.Role{domain.RoleAdmin})).Post("/", h.CreateUser)
			r.Get("/", h.GetAllUserInfo)
			r.Route("/{id}", func(r chi.Router) {
				r.Use(h.userInfo)
				r.Get("/", h.GetUserInfo)
				r.With(h.preventOperateInitialAdmin).With(h.RequiredRole([]domain.Role{domain.RoleAdmin})).Patch("/", h.UpdateUser)
				r.With(h.preventOperateInitialAdmin).With(h.RequiredRole([]domain.Role{domain.RoleAdmin})).Delete("/", h.DeleteUser)
				r.With(h.RequiredRole([]domain.Role{domain.RoleAdmin})).Patch("/password", h.UpdateUserPassword)
				r.Get("/schedule", h.GetUserSchedule)
				r.Get("/statistics", h.GetUserStatistics)
			})
		})

		r.Route("/shifts", func(r chi.Router) {
			r.With(h.RequiredRole([]domain.Role{domain.RoleAdmin})).Post("/", h.CreateShift)
			r.Get("/", h.GetAllShifts)
			r.Route("/{id}", func(r chi.Router) {
				r.Use(h.shiftInfo)
				r.Get("/", h.GetShift)
				r.With(h.RequiredRole([]domain.Role{domain.RoleAdmin})).Patch("/", h.UpdateShift)
				r.With(h.RequiredRole([]domain.Role{domain.RoleAdmin})).Delete("/", h.DeleteShift)
			})
		})

		r.Route("/schedule-events", func(r chi.Router) {
			r.Post("/", h.CreateScheduleEvent)
			r.Get("/", h.GetAllScheduleEvents)
			r.With(h.RequiredRole([]domain.Role{domain.RoleAdmin})).Post("/bulk", h.BulkCreateScheduleEvents)
			r.Get("/check-availability", h.CheckAvailability)
			r.Get("/check-conflicts", h.CheckConflicts)
			r.Get("/calendar", h.GetCalendar)
			r.With(h.RequiredRole([]domain.Role{domain.RoleAdmin})).Get("/statistics", h.GetScheduleStatistics)
			r.Get("/export", h.ExportScheduleEvents)
			r.Route("/{id}", func(r chi.Router) {
				r.Use(h.scheduleEvent)
				r.Get("/", h.GetScheduleEvent)
				r.Patch("/", h.UpdateScheduleEvent)
				r.Delete("/", h.DeleteScheduleEvent)
			})
		})

		r.Route("/schedule-templates", func(r chi.Router) {
			r.With(h.RequiredRole([]domain.Role{domain.RoleAdmin})).Post("/", h.CreateScheduleTemplate)
			r.Get("/", h.GetAllScheduleTemplates)
			r.Route("/{id}", func(r chi.Router) {
				r.Use(h.scheduleTemplate)
				r.Get("/", h.GetScheduleTemplate)
				r.With(h.RequiredRole([]domain.Role{domain.RoleAdmin})).Patch("/", h.UpdateScheduleTemplate)
				r.With(h.RequiredRole([]domain.Role{domain.RoleAdmin})).Delete("/", h.DeleteScheduleTemplate)
				r.With(h.RequiredRole([]domain.Role{domain.RoleAdmin})).Post("/apply", h.ApplyScheduleTemplate)
			})
		})

		r.Route("/patients", func(r chi.Router) {
			r.Get("/", h.GetAllPatients)
			r.Get("/{id}", h.GetPatient)
		})

		r.Route("/departments/{department}", func(r chi.Router) {
			r.Get("/schedule", h.GetDepartmentSchedule)
			r.Get("/today", h.GetDepartmentToday)
			r.Get("/statistics", h.GetDepartmentStatistics)
		})
	})
}
