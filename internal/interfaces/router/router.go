package router

import (
	"time"

	authsvc "pettie-backend/internal/application/auth"
	emailsvc "pettie-backend/internal/application/emails"
	favsvc "pettie-backend/internal/application/favorites"
	healthsvc "pettie-backend/internal/application/health"
	lesvc "pettie-backend/internal/application/listingevents"
	listsvc "pettie-backend/internal/application/listings"
	uploadsvc "pettie-backend/internal/application/uploads"
	usersvc "pettie-backend/internal/application/user"
	"pettie-backend/internal/config"
	"pettie-backend/internal/infrastructure/database"
	authhandler "pettie-backend/internal/interfaces/handlers/auth"
	favhandler "pettie-backend/internal/interfaces/handlers/favorites"
	healthhandler "pettie-backend/internal/interfaces/handlers/health"
	lehandler "pettie-backend/internal/interfaces/handlers/listingevents"
	listhandler "pettie-backend/internal/interfaces/handlers/listings"
	streamhandler "pettie-backend/internal/interfaces/handlers/streams"
	uploadhandler "pettie-backend/internal/interfaces/handlers/uploads"
	userhandler "pettie-backend/internal/interfaces/handlers/user"
	"pettie-backend/internal/middleware"
	"pettie-backend/internal/realtime"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// BodyLimit covers a multipart listing with MaxPhotos phone-sized images.
const BodyLimit = 25 * 1024 * 1024

// CreateApp opens the database and Redis, migrates, and builds the Fiber app.
func CreateApp(cfg *config.Config) (*fiber.App, *gorm.DB, *redis.Client, error) {
	opt, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, nil, nil, err
	}
	rdb := redis.NewClient(opt)

	db, err := database.Open(cfg.DatabaseURL)
	if err != nil {
		return nil, nil, nil, err
	}
	if err := database.AutoMigrate(db); err != nil {
		return nil, nil, nil, err
	}
	return Build(cfg, db, rdb), db, rdb, nil
}

// Build registers middleware and routes over already opened connections.
func Build(cfg *config.Config, db *gorm.DB, rdb *redis.Client) *fiber.App {
	app := fiber.New(fiber.Config{
		DisableStartupMessage:   true,
		ErrorHandler:            middleware.ErrorHandler(rdb),
		EnableTrustedProxyCheck: true,
		BodyLimit:               BodyLimit,
	})

	app.Use(middleware.CORS(middleware.CORSConfig{
		AllowedSuffix: cfg.FrontendURLEndsWith,
		DevPassword:   cfg.DevPassword,
	}))
	app.Use(middleware.Tracing())
	app.Use(middleware.Session(rdb))
	app.Use(middleware.HealthMarker(rdb))
	app.Use(middleware.RouteLogger())

	sessionCfg := middleware.SessionConfig{
		AllowCrossSiteDev: cfg.AllowCrossSiteDev,
		IsProduction:      cfg.IsProduction(),
	}

	// a nil *BrevoClient in the interface would look configured
	var emailSender emailsvc.Sender
	if cfg.SendinblueAPIKey != "" {
		emailSender = &emailsvc.BrevoClient{APIKey: cfg.SendinblueAPIKey, MailFrom: cfg.MailFrom}
	}
	var storage uploadsvc.StorageClient
	pings := map[string]string{}
	if cfg.SupabaseURL != "" {
		storage = &uploadsvc.HTTPClient{BaseURL: cfg.SupabaseURL, SecretKey: cfg.SupabaseSecretKey}
		pings["storage"] = cfg.SupabaseURL
	}

	bus := &realtime.RedisBus{Rdb: rdb}
	ups := &uploadsvc.Service{Client: storage, ListingImagesBucket: cfg.ListingImagesBucket}
	ls := &listsvc.Service{DB: db, Uploader: ups, Publisher: bus}
	feeds := listsvc.NewFeeds(ls, bus)
	us := &usersvc.Service{DB: db}

	hh := &healthhandler.Handlers{
		Collector: &healthsvc.Collector{
			Rdb:       rdb,
			DB:        &database.Pinger{DB: db},
			Pings:     pings,
			Listeners: feeds.Listeners,
			Timeout:   3 * time.Second,
		},
		Rdb:            rdb,
		HealthAdminKey: cfg.HealthAdminKey,
	}
	app.Get("/", hh.Dashboard)
	app.Get("/reset", hh.Reset)
	app.Get("/health/json", hh.JSON)
	app.Get("/health/errors", hh.Errors)

	ah := &authhandler.Handlers{
		Service: &authsvc.Service{DB: db, Rdb: rdb, EmailSender: emailSender, ResetBaseURL: cfg.ResetBaseURL},
		Rdb:     rdb,
		Config:  sessionCfg,
	}
	ag := app.Group("/api/v1/auth")
	ag.Post("/login", ah.Login)
	ag.Post("/register", ah.Register)
	ag.Post("/reset-password", ah.ResetPassword)
	ag.Post("/confirm-reset", ah.ConfirmReset)
	ag.Get("/me", ah.Me)
	ag.Delete("/logout", ah.Logout)

	uh := &userhandler.Handlers{Service: us}
	ug := app.Group("/api/v1/users")
	// /me before /:id
	ug.Get("/me", middleware.RequireAuth(), uh.Me)
	ug.Patch("/me", middleware.RequireAuth(), uh.UpdateMe)
	ug.Get("/:id", uh.GetUser)

	fs := &favsvc.Service{DB: db}
	lh := &listhandler.Handlers{Service: ls, Favorites: fs}
	leh := &lehandler.Handlers{Service: &lesvc.Service{DB: db}}
	lg := app.Group("/api/v1/listings")
	lg.Get("/recent", lh.Recent)
	lg.Get("/user/:user_id", lh.ByUser)
	lg.Get("/:id", lh.Get)
	// field validation is reported before the sign-in check
	lg.Post("/", lh.Create)
	lg.Patch("/:id", middleware.RequireAuth(), lh.Update)
	lg.Patch("/:id/status", middleware.RequireAuth(), lh.UpdateStatus)
	lg.Get("/:id/events", middleware.RequireAuth(), leh.GetListingEvents)

	fh := &favhandler.Handlers{Service: fs}
	fg := app.Group("/api/v1/favorites", middleware.RequireAuth())
	fg.Get("/", fh.List)
	fg.Post("/:listing_id", fh.Add)
	fg.Delete("/:listing_id", fh.Remove)

	uph := &uploadhandler.Handlers{
		Service:             ups,
		ListingImagesBucket: cfg.ListingImagesBucket,
		ProfilePhotosBucket: cfg.ProfilePhotosBucket,
	}
	upg := app.Group("/api/v1/uploads", middleware.RequireAuth())
	upg.Post("/listing-image", uph.ListingImage)
	upg.Post("/profile-photo", uph.ProfilePhoto)

	sh := &streamhandler.Handlers{Feeds: feeds, Users: us}
	sg := app.Group(middleware.StreamsPrefix)
	sg.Get("/home", sh.Home)
	sg.Get("/users/:user_id/listings", sh.UserListings)
	sg.Get("/profile", sh.Profile)
	sg.Get("/listings/:id", sh.Listing)

	return app
}
