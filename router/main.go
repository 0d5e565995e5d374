package router

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"github.com/wiproedx/synergeticsopenedx/config"
	"github.com/wiproedx/synergeticsopenedx/database"
	"github.com/wiproedx/synergeticsopenedx/handlers"
	admin_handlers "github.com/wiproedx/synergeticsopenedx/handlers/admin"
	certificate_handlers "github.com/wiproedx/synergeticsopenedx/handlers/certificate"
	coupon_handlers "github.com/wiproedx/synergeticsopenedx/handlers/coupon"
	course_handlers "github.com/wiproedx/synergeticsopenedx/handlers/course"
	payment_handlers "github.com/wiproedx/synergeticsopenedx/handlers/payment"
	program_handlers "github.com/wiproedx/synergeticsopenedx/handlers/program"
	"github.com/wiproedx/synergeticsopenedx/services"
	"github.com/wiproedx/synergeticsopenedx/services/cybersource"
	"github.com/wiproedx/synergeticsopenedx/services/storage"
	"github.com/wiproedx/synergeticsopenedx/utils"
	"github.com/wiproedx/synergeticsopenedx/utils/auth"
	"github.com/wiproedx/synergeticsopenedx/utils/cache"
	"github.com/wiproedx/synergeticsopenedx/utils/crypto"
	"github.com/wiproedx/synergeticsopenedx/utils/middleware"
	"gorm.io/gorm"
)

const postpayCallbackPath = "/api/v1/programs/postpay_callback"

// SetupRoutes builds the services from env and mounts every route. The
// reporter is owned by the caller so it can be flushed on shutdown.
func SetupRoutes(app *fiber.App, store database.Storage, env *config.EnviornmentVariable, reporter services.Reporter) {
	if env.JWT_SECRET == "" {
		log.Fatal("JWT_SECRET environment variable is not set")
	}
	jwtManager := auth.NewJWTManager(auth.JWTConfig{
		Secret: env.JWT_SECRET,
		Expiry: 24 * time.Hour,
		Issuer: env.JWT_ISSUER,
	})

	db, ok := store.GetDB().(*gorm.DB)
	if !ok {
		log.Fatal("Failed to get GORM DB instance")
	}

	// Redis backs the coupon lockout and the program page cache. Both
	// degrade to no-ops without it.
	var programCache cache.Store
	var couponGuard *middleware.CouponAttemptGuard
	if redisCache, err := cache.NewRedisCache(env.REDIS_URL); err != nil {
		log.Warnf("Failed to connect to Redis: %v. Coupon lockout and program caching are disabled.", err)
	} else {
		programCache = redisCache
		couponGuard = middleware.NewCouponAttemptGuard(redisCache)
	}

	// Receipts are archived in Spaces when a bucket is configured.
	var receiptStore services.ReceiptStore
	var receiptLinks program_handlers.ReceiptLinker
	if spacesCfg := env.Spaces(); spacesCfg.Configured() {
		spaces, err := storage.NewSpacesClient(spacesCfg)
		if err != nil {
			log.Warnf("Failed to create Spaces client: %v. Receipts will not be archived.", err)
		} else {
			receiptStore = spaces
			receiptLinks = spaces
		}
	}

	var email services.EmailService
	if env.SENDGRID_API_KEY != "" {
		email = services.NewSendgridEmailService(env.SENDGRID_API_KEY, env.EMAIL_FROM_NAME, env.EMAIL_FROM_ADDRESS)
	} else {
		log.Warn("SENDGRID_API_KEY is not set. Emails are written to the log.")
		email = services.NewConsoleEmailService(env.EMAIL_FROM_NAME, env.EMAIL_FROM_ADDRESS)
	}

	processorCfg := env.Processor()
	if err := processorCfg.Validate(); err != nil {
		log.Warnf("%v. Purchase forms cannot be signed and every callback will fail verification.", err)
	}
	if env.PAYLOAD_ENCRYPTION_SECRET == "" {
		log.Warn("PAYLOAD_ENCRYPTION_SECRET is not set. Processor callbacks are stored unencrypted.")
	}

	// Services
	receipts := services.NewReceiptService(env.PLATFORM_NAME, env.PAID_COURSE_REGISTRATION_CURRENCY, env.PAYMENT_SUPPORT_EMAIL)
	mailer := services.NewReceiptMailer(db, receipts, receiptStore, email, services.MailerConfig{
		PlatformName:   env.PLATFORM_NAME,
		SiteName:       env.SITE_NAME,
		SupportEmail:   env.PAYMENT_SUPPORT_EMAIL,
		CurrencySymbol: env.PAID_COURSE_REGISTRATION_CURRENCY_SYMBOL,
	})
	programService := services.NewProgramService(db, programCache)
	catalogService := services.NewCatalogService(db)
	orderService := services.NewOrderService(db, mailer)
	couponService := services.NewCouponService(db)
	enrollmentService := services.NewEnrollmentService(db, services.NewLocalCourseEnroller(db))
	certificateService := services.NewCertificateService(db)
	analyticsService := services.NewAnalyticsService(db)
	callbackLog := services.NewCallbackLogStore(db, crypto.NewPayloadSealer(env.PAYLOAD_ENCRYPTION_SECRET))
	processor := cybersource.NewProcessor(processorCfg, orderService)
	paymentService := services.NewPaymentService(processor, orderService, enrollmentService, callbackLog, reporter)

	// Handlers
	authMiddleware := middleware.NewAuthMiddleware(jwtManager, db)
	programHandler := program_handlers.NewProgramHandler(program_handlers.Deps{
		Catalog:  programService,
		Enroller: enrollmentService,
		Orders:   orderService,
		Coupons:  couponService,
		Signer:   processor,
		Receipts: receipts,
		Links:    receiptLinks,
		Settings: program_handlers.Settings{
			Currency:       env.PAID_COURSE_REGISTRATION_CURRENCY,
			CurrencySymbol: env.PAID_COURSE_REGISTRATION_CURRENCY_SYMBOL,
			ReceiptPageURL: env.PAYMENT_RECEIPT_PAGE_URL,
			SiteName:       env.SITE_NAME,
		},
	})
	couponHandler := coupon_handlers.NewCouponHandler(couponService, couponGuard)
	paymentHandler := payment_handlers.NewPaymentHandler(paymentService, env.PAYMENT_SUPPORT_EMAIL, env.LOG_POSTPAY_CALLBACKS)
	certificateHandler := certificate_handlers.NewCertificateHandler(certificateService)
	courseHandler := course_handlers.NewCourseHandler(db)
	adminHandler := admin_handlers.NewAdminHandler(admin_handlers.Deps{
		Programs:     programService,
		Catalog:      catalogService,
		Coupons:      couponService,
		Orders:       orderService,
		Certificates: certificateService,
		Enrollments:  enrollmentService,
		Callbacks:    callbackLog,
	})

	// The processor posts from a handful of IPs and must never be throttled.
	middleware.SetupSecurity(app, middleware.SecurityConfig{
		AllowedOrigins:    env.ALLOWED_ORIGINS,
		RateLimitRequests: 100,
		RateLimitWindow:   1 * time.Minute,
		UnlimitedPaths:    []string{postpayCallbackPath},
	})

	// Health check endpoint (public)
	app.Get("/ping", utils.MakeHTTPHandleFunc(handlers.HandleCheckHealth, store))

	api := app.Group("/api/v1")

	// ==================== Programs ====================

	// Processor webhook (authenticated by its HMAC signature)
	app.Post(postpayCallbackPath, paymentHandler.PostpayCallback)

	programs := api.Group("/programs")
	programs.Get("/orders", authMiddleware.Required(), programHandler.ListOrders)
	programs.Get("/receipt/:id", authMiddleware.Required(), programHandler.GetReceipt)
	programs.Get("/receipt/:id/pdf", authMiddleware.Required(), programHandler.DownloadReceipt)
	programs.Get("/certificates/:uuid", certificateHandler.VerifyCertificate)
	programs.Post("/use_code", authMiddleware.Required(), couponGuard.Check(), couponHandler.UseCode)
	programs.Post("/reset_code_redemption", authMiddleware.Required(), couponHandler.ResetCodeRedemption)
	programs.Get("/:id", authMiddleware.Optional(), programHandler.GetProgram)
	programs.Post("/:id/buy", authMiddleware.Required(), programHandler.Buy)
	programs.Get("/:id/info", authMiddleware.Required(), programHandler.GetProgramInfo)

	// ==================== Back-office ====================

	admin := app.Group("/admin", authMiddleware.RequireAdmin())

	admin.Get("/programs", adminHandler.ListPrograms)
	admin.Get("/programs/:id", adminHandler.GetProgram)
	admin.Post("/programs", middleware.AdminAuditLog(db, "program_create", "programs"), adminHandler.CreateProgram)
	admin.Put("/programs/:id", middleware.AdminAuditLog(db, "program_update", "programs"), adminHandler.UpdateProgram)
	admin.Delete("/programs/:id", middleware.AdminAuditLog(db, "program_delete", "programs"), adminHandler.DeleteProgram)

	admin.Get("/programs/:id/signatories", adminHandler.ListSignatories)
	admin.Post("/programs/:id/signatories", middleware.AdminAuditLog(db, "signatory_create", "programs"), adminHandler.CreateSignatory)
	admin.Put("/signatories/:id", middleware.AdminAuditLog(db, "signatory_update", "signatories"), adminHandler.UpdateSignatory)
	admin.Delete("/signatories/:id", middleware.AdminAuditLog(db, "signatory_delete", "signatories"), adminHandler.DeleteSignatory)

	admin.Get("/subjects", adminHandler.ListSubjects)
	admin.Post("/subjects", middleware.AdminAuditLog(db, "subject_create", "subjects"), adminHandler.CreateSubject)
	admin.Put("/subjects/:id", middleware.AdminAuditLog(db, "subject_update", "subjects"), adminHandler.UpdateSubject)
	admin.Delete("/subjects/:id", middleware.AdminAuditLog(db, "subject_delete", "subjects"), adminHandler.DeleteSubject)

	admin.Get("/languages", adminHandler.ListLanguages)
	admin.Post("/languages", middleware.AdminAuditLog(db, "language_create", "languages"), adminHandler.CreateLanguage)
	admin.Put("/languages/:id", middleware.AdminAuditLog(db, "language_update", "languages"), adminHandler.UpdateLanguage)
	admin.Delete("/languages/:id", middleware.AdminAuditLog(db, "language_delete", "languages"), adminHandler.DeleteLanguage)

	admin.Get("/institutions", adminHandler.ListInstitutions)
	admin.Post("/institutions", middleware.AdminAuditLog(db, "institution_create", "institutions"), adminHandler.CreateInstitution)
	admin.Put("/institutions/:id", middleware.AdminAuditLog(db, "institution_update", "institutions"), adminHandler.UpdateInstitution)
	admin.Delete("/institutions/:id", middleware.AdminAuditLog(db, "institution_delete", "institutions"), adminHandler.DeleteInstitution)

	admin.Get("/instructors", adminHandler.ListInstructors)
	admin.Post("/instructors", middleware.AdminAuditLog(db, "instructor_create", "instructors"), adminHandler.CreateInstructor)
	admin.Put("/instructors/:id", middleware.AdminAuditLog(db, "instructor_update", "instructors"), adminHandler.UpdateInstructor)
	admin.Delete("/instructors/:id", middleware.AdminAuditLog(db, "instructor_delete", "instructors"), adminHandler.DeleteInstructor)

	admin.Get("/courses", courseHandler.ListCourses)
	admin.Get("/courses/:id", courseHandler.GetCourse)
	admin.Post("/courses", middleware.AdminAuditLog(db, "course_create", "courses"), courseHandler.CreateCourse)
	admin.Put("/courses/:id", middleware.AdminAuditLog(db, "course_update", "courses"), courseHandler.UpdateCourse)
	admin.Delete("/courses/:id", middleware.AdminAuditLog(db, "course_delete", "courses"), courseHandler.DeleteCourse)

	admin.Get("/coupons", adminHandler.ListCoupons)
	admin.Post("/coupons", middleware.AdminAuditLog(db, "coupon_create", "coupons"), adminHandler.CreateCoupon)
	admin.Put("/coupons/:id", middleware.AdminAuditLog(db, "coupon_update", "coupons"), adminHandler.UpdateCoupon)
	admin.Delete("/coupons/:id", middleware.AdminAuditLog(db, "coupon_delete", "coupons"), adminHandler.DeleteCoupon)

	admin.Get("/orders", adminHandler.ListOrders)
	admin.Get("/orders/:id", adminHandler.GetOrder)
	admin.Post("/orders/:id/refund", middleware.AdminAuditLog(db, "order_refund", "orders"), adminHandler.RefundOrder)

	admin.Post("/certificates", middleware.AdminAuditLog(db, "certificate_issue", "certificates"), adminHandler.IssueCertificate)

	admin.Get("/users/:id/enrollments", adminHandler.ListUserEnrollments)
	admin.Post("/users/:id/programs/:program_id", middleware.AdminAuditLog(db, "enrollment_create", "enrollments"), adminHandler.EnrollUser)
	admin.Delete("/users/:id/programs/:program_id", middleware.AdminAuditLog(db, "enrollment_delete", "enrollments"), adminHandler.UnenrollUser)

	admin.Get("/payments/callbacks", adminHandler.ListPaymentCallbacks)
	admin.Get("/payments/callbacks/:id", adminHandler.GetPaymentCallback)

	admin.Get("/analytics/sales", func(c *fiber.Ctx) error { return admin_handlers.GetSalesAnalytics(c, analyticsService) })

	admin.Get("/audit-logs", func(c *fiber.Ctx) error { return admin_handlers.ListAuditLogs(c, db) })
	admin.Get("/audit-logs/:id", func(c *fiber.Ctx) error { return admin_handlers.GetAuditLog(c, db) })
}
