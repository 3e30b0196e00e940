// confluadm is the terminal admin client for the Conflu backend:
// credential login, entity listings rendered as tables, dashboard
// stats, interactive company creation and confirmed deletes.
package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"syscall"

	"github.com/rs/zerolog"
	"golang.org/x/term"

	"github.com/conflu/conflu-admin/internal/api"
	"github.com/conflu/conflu-admin/internal/auth"
	"github.com/conflu/conflu-admin/internal/cache"
	"github.com/conflu/conflu-admin/internal/config"
	"github.com/conflu/conflu-admin/internal/crud"
	"github.com/conflu/conflu-admin/internal/dialog"
	"github.com/conflu/conflu-admin/internal/logger"
	"github.com/conflu/conflu-admin/internal/model"
	"github.com/conflu/conflu-admin/internal/table"
	"github.com/conflu/conflu-admin/internal/validator"
)

const usage = `Usage: confluadm <command> [args]

Commands:
  login                    sign in with email and password
  logout                   clear the stored session
  whoami                   show the signed-in user
  list <empresas|alunos|cursos>
  stats                    totals and last-30-days counts per entity
  create empresas          interactive company creation
  delete <kind> <id>       delete one entity after confirmation
`

type app struct {
	cfg       *config.Config
	log       zerolog.Logger
	auth      *auth.Client
	companies *crud.Service[model.Company, model.CreateCompanyRequest, model.UpdateCompanyRequest]
	students  *crud.Service[model.Student, model.CreateStudentRequest, model.UpdateStudentRequest]
	courses   *crud.Service[model.Course, model.CreateCourseRequest, model.UpdateCourseRequest]
}

func main() {
	cfg := config.Load()
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)

	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	// Every exit path returns through run so its defers (cache drain,
	// Redis close) always execute.
	if err := run(cfg, log); err != nil {
		log.Error().Err(err).Str("command", os.Args[1]).Msg("Command failed")
		os.Exit(1)
	}
}

func run(cfg *config.Config, log zerolog.Logger) error {
	ctx := context.Background()

	authGateway := api.NewClient(cfg.AuthBaseURL, cfg.RequestTimeout, log)
	authClient := auth.New(authGateway, auth.NewSessionStore(cfg.SessionFile), log)

	gateway := api.NewClient(cfg.APIBaseURL, cfg.RequestTimeout, log)
	gateway.SetToken(authClient.Token())
	authClient.OnChange(func(*auth.User) {
		gateway.SetToken(authClient.Token())
	})

	var store cache.Store = cache.NewMemoryStore()
	if cfg.RedisURL != "" {
		redisStore, err := cache.NewRedisStore(ctx, cfg.RedisURL, log)
		if err != nil {
			return fmt.Errorf("connect redis cache store: %w", err)
		}
		defer redisStore.Close()
		store = redisStore
	}
	qc := cache.New(store, cfg.TTLFor, log)
	// Flush any stale-while-revalidate refreshes before the store
	// closes, so shared Redis ends up fresh for the next invocation.
	defer qc.Wait()
	v := validator.New()

	a := &app{
		cfg:       cfg,
		log:       log,
		auth:      authClient,
		companies: crud.NewService(gateway.Companies(), qc, v, cfg.StatsTTL, log),
		students:  crud.NewService(gateway.Students(), qc, v, cfg.StatsTTL, log),
		courses:   crud.NewService(gateway.Courses(), qc, v, cfg.StatsTTL, log),
	}

	switch os.Args[1] {
	case "login":
		return a.cmdLogin(ctx)
	case "logout":
		return a.auth.Logout()
	case "whoami":
		return a.cmdWhoami()
	case "list":
		return a.cmdList(ctx, arg(2))
	case "stats":
		return a.cmdStats(ctx)
	case "create":
		return a.cmdCreate(ctx, arg(2))
	case "delete":
		return a.cmdDelete(ctx, arg(2), arg(3))
	default:
		fmt.Fprint(os.Stderr, usage)
		return fmt.Errorf("unknown command %q", os.Args[1])
	}
}

func arg(i int) string {
	if len(os.Args) > i {
		return os.Args[i]
	}
	return ""
}

func (a *app) requireAuth() error {
	if !a.auth.IsAuthenticated() {
		return fmt.Errorf("not logged in: run `confluadm login` first")
	}
	return nil
}

func (a *app) cmdLogin(ctx context.Context) error {
	reader := bufio.NewReader(os.Stdin)

	fmt.Print("Email: ")
	email, _ := reader.ReadString('\n')
	email = strings.TrimSpace(email)

	fmt.Print("Password: ")
	bytePassword, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Println()
	if err != nil {
		return fmt.Errorf("read password: %w", err)
	}

	user, err := a.auth.Login(ctx, email, string(bytePassword))
	if err != nil {
		return err
	}
	fmt.Printf("Logged in as %s <%s>\n", user.Name, user.Email)
	return nil
}

func (a *app) cmdWhoami() error {
	user := a.auth.CurrentUser()
	if user == nil {
		fmt.Println("Not logged in.")
		return nil
	}
	fmt.Printf("%s <%s> (id %d)\n", user.Name, user.Email, user.ID)
	return nil
}

func (a *app) cmdList(ctx context.Context, kind string) error {
	if err := a.requireAuth(); err != nil {
		return err
	}

	switch model.Kind(kind) {
	case model.KindCompany:
		return renderList(ctx, a.companies, companyColumns())
	case model.KindStudent:
		return renderList(ctx, a.students, studentColumns())
	case model.KindCourse:
		return renderList(ctx, a.courses, courseColumns())
	default:
		return fmt.Errorf("unknown entity kind %q", kind)
	}
}

func renderList[T model.Entity, C any, U any](
	ctx context.Context,
	svc *crud.Service[T, C, U],
	columns []table.Column[T],
) error {
	items, err := svc.Load(ctx, nil)
	if err != nil {
		return err
	}
	t := table.New(columns, table.WithSort[T]("nome", false))
	return t.Render(os.Stdout, items, svc.IsLoadingList())
}

func (a *app) cmdStats(ctx context.Context) error {
	if err := a.requireAuth(); err != nil {
		return err
	}

	kinds := []struct {
		label string
		fetch func(context.Context) (crud.Stats, error)
	}{
		{"empresas", a.companies.Stats},
		{"alunos", a.students.Stats},
		{"cursos", a.courses.Stats},
	}

	for _, k := range kinds {
		stats, err := k.fetch(ctx)
		if err != nil {
			return fmt.Errorf("%s stats: %w", k.label, err)
		}
		fmt.Printf("%-10s total %-5d últimos 30 dias %d\n", k.label, stats.Total, stats.Recent)
	}
	return nil
}

func (a *app) cmdCreate(ctx context.Context, kind string) error {
	if err := a.requireAuth(); err != nil {
		return err
	}
	if model.Kind(kind) != model.KindCompany {
		return fmt.Errorf("interactive create supports only empresas (got %q)", kind)
	}

	reader := bufio.NewReader(os.Stdin)
	prompt := func(label string) string {
		fmt.Printf("%s: ", label)
		value, _ := reader.ReadString('\n')
		return strings.TrimSpace(value)
	}

	fmt.Println("=== Nova Empresa ===")
	payload := model.CreateCompanyRequest{
		Name:    prompt("Nome"),
		TaxID:   prompt("CNPJ (14 dígitos, opcional)"),
		Email:   prompt("Email"),
		Phone:   prompt("Telefone (opcional)"),
		Address: prompt("Endereço (opcional)"),
	}

	dlg := dialog.New(a.companies, a.log)
	dlg.OpenCreate()
	if err := dlg.Submit(ctx, payload, model.UpdateCompanyRequest{}); err != nil {
		if ve, ok := api.AsValidation(err); ok {
			fmt.Println("Dados inválidos:")
			for field, msg := range ve.Fields {
				fmt.Printf("  %s: %s\n", field, msg)
			}
		}
		return err
	}

	fmt.Println("Empresa criada.")
	return nil
}

func (a *app) cmdDelete(ctx context.Context, kind, rawID string) error {
	if err := a.requireAuth(); err != nil {
		return err
	}
	id, err := strconv.Atoi(rawID)
	if err != nil {
		return fmt.Errorf("invalid id %q", rawID)
	}

	switch model.Kind(kind) {
	case model.KindCompany:
		return confirmDelete(ctx, a.companies, id, a.log)
	case model.KindStudent:
		return confirmDelete(ctx, a.students, id, a.log)
	case model.KindCourse:
		return confirmDelete(ctx, a.courses, id, a.log)
	default:
		return fmt.Errorf("unknown entity kind %q", kind)
	}
}

func confirmDelete[T model.Entity, C any, U any](
	ctx context.Context,
	svc *crud.Service[T, C, U],
	id int,
	log zerolog.Logger,
) error {
	items, err := svc.Load(ctx, nil)
	if err != nil {
		return err
	}

	var target *T
	for i := range items {
		if items[i].EntityID() == id {
			target = &items[i]
			break
		}
	}
	if target == nil {
		return fmt.Errorf("%s %d not found", svc.Kind(), id)
	}

	dlg := dialog.New(svc, log)
	dlg.RequestDelete(*target)

	fmt.Printf("Excluir %s %d? [y/N] ", svc.Kind(), id)
	reader := bufio.NewReader(os.Stdin)
	answer, _ := reader.ReadString('\n')
	if strings.ToLower(strings.TrimSpace(answer)) != "y" {
		dlg.CancelDelete()
		fmt.Println("Cancelado.")
		return nil
	}

	if err := dlg.ConfirmDelete(ctx); err != nil {
		return err
	}
	fmt.Println("Excluído.")
	return nil
}

func companyColumns() []table.Column[model.Company] {
	return []table.Column[model.Company]{
		{Key: "id", Label: "ID", Value: func(c model.Company) any { return c.ID }},
		{Key: "nome", Label: "Nome", Sortable: true, Value: func(c model.Company) any { return c.Name }},
		{Key: "cnpj", Label: "CNPJ", Value: func(c model.Company) any { return c.TaxID }},
		{Key: "email", Label: "Email", Value: func(c model.Company) any { return c.Email }},
		{Key: "telefone", Label: "Telefone", Value: func(c model.Company) any { return c.Phone }},
	}
}

func studentColumns() []table.Column[model.Student] {
	return []table.Column[model.Student]{
		{Key: "id", Label: "ID", Value: func(s model.Student) any { return s.ID }},
		{Key: "nome", Label: "Nome", Sortable: true, Value: func(s model.Student) any { return s.Name }},
		{Key: "cpf", Label: "CPF", Value: func(s model.Student) any { return s.TaxID }},
		{Key: "email", Label: "Email", Value: func(s model.Student) any { return s.Email }},
		{Key: "data_nascimento", Label: "Nascimento", Value: func(s model.Student) any { return s.BirthDate }},
		{Key: "empresa_id", Label: "Empresa", Value: func(s model.Student) any { return s.CompanyID }},
	}
}

func courseColumns() []table.Column[model.Course] {
	return []table.Column[model.Course]{
		{Key: "id", Label: "ID", Value: func(c model.Course) any { return c.ID }},
		{Key: "nome", Label: "Nome", Sortable: true, Value: func(c model.Course) any { return c.Name }},
		{Key: "carga_horaria", Label: "Carga Horária", Sortable: true, Value: func(c model.Course) any { return c.DurationHours },
			Render: func(v any, _ model.Course) string { return fmt.Sprintf("%vh", v) }},
		{Key: "preco", Label: "Preço", Sortable: true, Value: func(c model.Course) any { return c.Price },
			Render: func(v any, _ model.Course) string { return fmt.Sprintf("R$ %.2f", v) }},
		{Key: "empresa_id", Label: "Empresa", Value: func(c model.Course) any { return c.CompanyID }},
	}
}
