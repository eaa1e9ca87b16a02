package FiberConfig

import (
	"log"

	"TaskLedger/Config"
	"TaskLedger/Controllers"
	"TaskLedger/Storage"
	"TaskLedger/middleware"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
)

func SetupRoutes(app *fiber.App, h *Controllers.Handler) {
	session := middleware.Verify(h.Tokens, h.Ledger.Users)
	manager := middleware.RequireManager()

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	api := app.Group("/api")
	api.Post("/login", h.Login)
	api.Post("/logout", h.Logout)
	api.Get("/me", session, h.Me)
	api.Patch("/me/credentials", session, h.UpdateCredentials)

	// Static paths go before the :id routes
	claims := api.Group("/claims", session)
	claims.Post("/", h.SubmitClaim)
	claims.Get("/mine", h.MyClaims)
	claims.Get("/pending", manager, h.PendingClaims)
	claims.Get("/:id", h.GetClaim)
	claims.Get("/:id/screenshot", h.ClaimScreenshot)
	claims.Get("/:id/activity", manager, h.ClaimActivity)
	claims.Post("/:id/approve", manager, h.ApproveClaim)
	claims.Post("/:id/reject", manager, h.RejectClaim)

	accounts := api.Group("/accounts", session)
	accounts.Get("/mine", h.MyAccounts)
	accounts.Post("/:id/accept", h.AcceptAccount())
	accounts.Post("/:id/pause", h.PauseAccount())
	accounts.Post("/:id/leave", h.LeaveAccount())
	accounts.Get("/", manager, h.ListAccounts)
	accounts.Post("/", manager, h.CreateAccount)
	accounts.Get("/notifications", manager, h.AccountNotifications)
	accounts.Post("/unassign-all", manager, h.UnassignAllAccounts)
	accounts.Put("/:id/assignee", manager, h.ReassignAccount)
	accounts.Delete("/:id", manager, h.DeleteAccount)
	accounts.Post("/:id/dismiss", manager, h.DismissUnpause())
	accounts.Get("/:id/activity", manager, h.AccountActivity)

	payroll := api.Group("/payroll", session, manager)
	payroll.Get("/", h.PayrollSummary)
	payroll.Post("/mark-paid", h.MarkPaid)
	payroll.Get("/export", h.ExportPayroll)

	employees := api.Group("/employees", session, manager)
	employees.Get("/", h.ListEmployees)
	employees.Post("/", h.CreateEmployee)
	employees.Delete("/:id", h.DeleteEmployee)
	employees.Get("/:id/history", h.EmployeeHistory)

	logs := api.Group("/logs", session, manager)
	logs.Get("/", h.GetLogs)
	logs.Get("/stats", h.GetLogStats)
}

// New builds the app with the shared middleware stack and every route.
func New(cfg Config.Config, h *Controllers.Handler) *fiber.App {
	app := fiber.New(fiber.Config{
		BodyLimit: Storage.MaxProofBytes + 1<<20,
	})
	app.Use(recover.New())
	app.Use(requestid.New())
	if cfg.LogDir != "" {
		app.Use(middleware.RequestLogger(cfg.LogDir))
		app.Use(middleware.ErrorLogger(cfg.LogDir))
	}
	app.Use(compress.New(compress.Config{
		Level: compress.LevelBestSpeed,
	}))
	app.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORSOrigins,
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS,PATCH",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, X-Requested-With",
		AllowCredentials: cfg.CORSOrigins != "*",
		MaxAge:           300,
	}))

	SetupRoutes(app, h)
	return app
}

func Serve(cfg Config.Config, app *fiber.App) error {
	log.Printf("Server Up on :%s", cfg.Port)
	return app.Listen(":" + cfg.Port)
}
