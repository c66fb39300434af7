package main

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	api "github.com/campus-metrics/outcometrack/internal/api/http"
	"github.com/campus-metrics/outcometrack/internal/audit"
	auth "github.com/campus-metrics/outcometrack/internal/auth/middleware"
	"github.com/campus-metrics/outcometrack/internal/cache"
	"github.com/campus-metrics/outcometrack/internal/catalog"
	"github.com/campus-metrics/outcometrack/internal/config"
	"github.com/campus-metrics/outcometrack/internal/db"
	"github.com/campus-metrics/outcometrack/internal/lostfound"
	"github.com/campus-metrics/outcometrack/internal/rbac"
	"github.com/campus-metrics/outcometrack/internal/sheet"
	"github.com/campus-metrics/outcometrack/internal/storage"
	"github.com/campus-metrics/outcometrack/internal/trash"
)

func main() {
	cfg := config.FromEnv()

	// --- DB ---
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	dbh, err := db.Open(ctx, db.Driver(cfg.DBDriver), cfg.DBDSN)
	if err != nil {
		log.Fatalf("db open failed: %v", err)
	}

	sheets := sheet.NewSQLStore(dbh)
	cat := catalog.NewSQLStore(dbh)
	lf := lostfound.NewSQLStore(dbh)
	bin := trash.NewBin(dbh, cat, sheets, lf)
	auditLog := audit.NewLog(dbh)

	bs, err := storage.NewFSStore(cfg.BlobBasePath)
	if err != nil {
		log.Fatalf("blob store: %v", err)
	}

	authSvc := auth.NewAuthService(cfg.AuthHMACSecret, cfg.TokenTTL)
	mappingCache := cache.New[api.MappingResponse](cfg.MappingCacheTTL, 0)

	// --- Router ---
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Logger, middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Post("/auth/login", auth.LoginHandler(authSvc, dbh))

	// Protected API (JWT → role in context → RBAC)
	r.Group(func(pr chi.Router) {
		pr.Use(auth.JWTMiddleware(authSvc))

		// CLO→PLO mapping (cached per course)
		pr.With(rbac.Require("mapping:view")).
			Get("/clo-plo-mapping/{courseID}", api.CloPloMappingHandler(cat, mappingCache))
		pr.With(rbac.Require("catalog:edit")).
			Put("/subjects/{courseID}/clos", api.UpdateSubjectCLOsHandler(cat, mappingCache, auditLog))

		// Teacher sheet flow
		pr.With(rbac.Require("sheet:view")).
			Get("/subject-sheets/{semesterID}/{courseID}", api.LoadSheetHandler(sheets, cat, auditLog))
		pr.With(rbac.Require("sheet:edit")).
			Put("/subject-sheets/{sheetID}/marks", api.SaveMarksHandler(sheets, auditLog))
		pr.With(rbac.Require("sheet:edit")).
			Put("/subject-sheets/{sheetID}/structure", api.SaveStructureHandler(sheets, auditLog))
		pr.With(rbac.Require("sheet:delete")).
			Delete("/subject-sheets/{sheetID}", api.DeleteSheetHandler(sheets, cat, bin, auditLog))

		// PLO aggregation; the single-student route is own-or-all: students
		// pass with plo:view-own and the handler pins them to their own id
		pr.With(rbac.Require("plo:view")).
			Get("/subject-sheets/all-students-plo/{semesterID}", api.AllStudentsPLOHandler(sheets, cat))
		pr.With(rbac.RequireAny("plo:view", "plo:view-own")).
			Get("/subject-sheets/student-plo/{semesterID}/{studentID}", api.StudentPLOHandler(sheets, cat))
		pr.With(rbac.RequireAny("plo:view", "plo:view-own")).
			Get("/subject-sheets/student-plo/{semesterID}/{studentID}/{ploNumber}", api.StudentPLOHandler(sheets, cat))

		// Student self-service (identity comes from the token, not the path)
		pr.With(rbac.Require("marks:view-own")).
			Get("/student-marks/{subjectID}/{semesterID}", api.StudentMarksHandler(sheets))

		// Catalog (admin writes, teacher reads)
		pr.With(rbac.Require("catalog:edit")).
			Post("/departments", api.CreateDepartmentHandler(cat))
		pr.With(rbac.Require("catalog:view")).
			Get("/departments", api.ListDepartmentsHandler(cat))
		pr.With(rbac.Require("catalog:edit")).
			Put("/departments/{departmentID}", api.UpdateDepartmentHandler(cat))
		pr.With(rbac.Require("catalog:edit")).
			Delete("/departments/{departmentID}", api.DeleteDepartmentHandler(cat, bin, auditLog))

		pr.With(rbac.Require("catalog:edit")).
			Post("/programs", api.CreateProgramHandler(cat))
		pr.With(rbac.Require("catalog:view")).
			Get("/programs", api.ListProgramsHandler(cat))
		pr.With(rbac.Require("catalog:edit")).
			Delete("/programs/{programID}", api.DeleteProgramHandler(cat, bin, auditLog))

		pr.With(rbac.Require("catalog:edit")).
			Post("/subjects", api.CreateSubjectHandler(cat))
		pr.With(rbac.Require("catalog:view")).
			Get("/subjects", api.ListSubjectsHandler(cat))
		pr.With(rbac.Require("catalog:view")).
			Get("/subjects/{courseID}", api.GetSubjectHandler(cat))
		pr.With(rbac.Require("catalog:edit")).
			Delete("/subjects/{courseID}", api.DeleteSubjectHandler(cat, bin, mappingCache, auditLog))

		pr.With(rbac.Require("catalog:edit")).
			Post("/semesters", api.CreateSemesterHandler(cat))
		pr.With(rbac.Require("catalog:view")).
			Get("/semesters", api.ListSemestersHandler(cat))
		pr.With(rbac.Require("catalog:view")).
			Get("/semesters/{semesterID}", api.GetSemesterHandler(cat))
		pr.With(rbac.Require("catalog:edit")).
			Put("/semesters/{semesterID}/contents", api.UpdateSemesterContentsHandler(cat))
		pr.With(rbac.Require("catalog:edit")).
			Delete("/semesters/{semesterID}", api.DeleteSemesterHandler(cat, bin, auditLog))

		// Trash (admin only)
		pr.With(rbac.Require("trash:manage")).
			Get("/trash", api.ListTrashHandler(bin))
		pr.With(rbac.Require("trash:manage")).
			Post("/trash/{trashID}/restore", api.RestoreTrashHandler(bin, auditLog))
		pr.With(rbac.Require("trash:manage")).
			Delete("/trash/{trashID}", api.PurgeTrashHandler(bin))

		// Lost & found
		pr.With(rbac.Require("lostfound:report")).
			Post("/lost-found", api.ReportLostItemHandler(lf))
		pr.With(rbac.Require("lostfound:view")).
			Get("/lost-found", api.ListLostItemsHandler(lf))
		pr.With(rbac.Require("lostfound:view")).
			Get("/lost-found/{itemID}", api.GetLostItemHandler(lf))
		pr.With(rbac.Require("lostfound:manage")).
			Put("/lost-found/{itemID}/status", api.UpdateLostItemStatusHandler(lf))
		pr.With(rbac.Require("lostfound:report")).
			Post("/lost-found/{itemID}/photo", api.UploadLostItemPhotoHandler(lf, bs, cfg.PublicURL))
		pr.With(rbac.Require("lostfound:view")).
			Get("/lost-found/{itemID}/photo", api.GetLostItemPhotoHandler(lf, bs))
		pr.With(rbac.Require("lostfound:manage")).
			Delete("/lost-found/{itemID}", api.DeleteLostItemHandler(lf, bin, auditLog))

		// Audit trail (admin only)
		pr.With(rbac.Require("audit:view")).
			Get("/audit", api.RecentAuditHandler(auditLog))
	})

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200) })
	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200) })

	log.Printf("listening on %s (db=%s)", cfg.HTTPAddr, cfg.DBDriver)
	log.Fatal(http.ListenAndServe(cfg.HTTPAddr, r))
}
