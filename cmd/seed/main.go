// seed pushes a small demo dataset through the public client: one pass
// of companies, then students and courses referencing them. Useful for
// exercising a fresh backend before handing it to the admin UI.
package main

import (
	"context"

	"github.com/conflu/conflu-admin/internal/api"
	"github.com/conflu/conflu-admin/internal/cache"
	"github.com/conflu/conflu-admin/internal/config"
	"github.com/conflu/conflu-admin/internal/crud"
	"github.com/conflu/conflu-admin/internal/logger"
	"github.com/conflu/conflu-admin/internal/model"
	"github.com/conflu/conflu-admin/internal/validator"
)

func main() {
	cfg := config.Load()
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)

	ctx := context.Background()

	gateway := api.NewClient(cfg.APIBaseURL, cfg.RequestTimeout, log)
	qc := cache.New(cache.NewMemoryStore(), cfg.TTLFor, log)
	v := validator.New()

	companies := crud.NewService(gateway.Companies(), qc, v, cfg.StatsTTL, log)
	students := crud.NewService(gateway.Students(), qc, v, cfg.StatsTTL, log)
	courses := crud.NewService(gateway.Courses(), qc, v, cfg.StatsTTL, log)

	companySeeds := []model.CreateCompanyRequest{
		{Name: "Acme Treinamentos", TaxID: "12345678000190", Email: "contato@acme.example", Phone: "11999990001", Address: "Av. Paulista, 1000"},
		{Name: "GouBuild Consultoria", Email: "ola@goubuild.example", Phone: "11999990002"},
	}

	var companyIDs []int
	for _, payload := range companySeeds {
		company, err := companies.Create(ctx, payload)
		if err != nil {
			log.Fatal().Err(err).Str("empresa", payload.Name).Msg("Seed company failed")
		}
		companyIDs = append(companyIDs, company.ID)
		log.Info().Int("id", company.ID).Str("nome", company.Name).Msg("Company seeded")
	}

	studentSeeds := []model.CreateStudentRequest{
		{Name: "Maria Souza", TaxID: "39053344705", Email: "maria@acme.example", BirthDate: "1994-03-12", CompanyID: companyIDs[0]},
		{Name: "João Pereira", Email: "joao@acme.example", BirthDate: "1988-11-02", CompanyID: companyIDs[0]},
		{Name: "Ana Lima", Email: "ana@goubuild.example", CompanyID: companyIDs[1]},
	}
	for _, payload := range studentSeeds {
		student, err := students.Create(ctx, payload)
		if err != nil {
			log.Fatal().Err(err).Str("aluno", payload.Name).Msg("Seed student failed")
		}
		log.Info().Int("id", student.ID).Str("nome", student.Name).Msg("Student seeded")
	}

	courseSeeds := []model.CreateCourseRequest{
		{Name: "Segurança do Trabalho", Description: "NR-35 básico", DurationHours: 16, Price: 450, CompanyID: companyIDs[0]},
		{Name: "Onboarding Interno", DurationHours: 8, Price: 0, CompanyID: companyIDs[1]},
	}
	for _, payload := range courseSeeds {
		course, err := courses.Create(ctx, payload)
		if err != nil {
			log.Fatal().Err(err).Str("curso", payload.Name).Msg("Seed course failed")
		}
		log.Info().Int("id", course.ID).Str("nome", course.Name).Msg("Course seeded")
	}

	log.Info().Msg("Seed complete")
}
