// Package devseed populates a development database with a small set of
// profiles, debts, and messages so the dashboard and admin pages have
// something to show.
package devseed

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/crednova/crednova-api/internal/data"
	"github.com/crednova/crednova-api/internal/domain/model"
)

// Fixed ids keep reruns idempotent: an existing profile means its child
// records were seeded before.
const (
	seedAdminID  = "11111111-1111-4111-8111-111111111111"
	seedMariaID  = "22222222-2222-4222-8222-222222222222"
	seedCarlosID = "33333333-3333-4333-8333-333333333333"
	seedJoaoID   = "44444444-4444-4444-8444-444444444444"
)

// Services bundles the repositories needed for development seeding.
type Services struct {
	DB        *sql.DB
	profiles  *data.ProfileRepo
	roles     *data.RoleRepo
	debts     *data.DebtRepo
	contacts  *data.ContactMessageRepo
	documents *data.UserDocumentRepo
	messages  *data.UserMessageRepo
}

// NewServices constructs the repositories for seeding using the provided DB.
func NewServices(db *sql.DB) Services {
	return Services{
		DB:        db,
		profiles:  data.NewProfileRepo(db),
		roles:     data.NewRoleRepo(db),
		debts:     data.NewDebtRepo(db),
		contacts:  data.NewContactMessageRepo(db),
		documents: data.NewUserDocumentRepo(db),
		messages:  data.NewUserMessageRepo(db),
	}
}

// Run executes the full development seeding workflow against the provided DB.
func Run(ctx context.Context, svcs Services, logger *slog.Logger) error {
	failures := 0
	for _, seed := range seedProfiles() {
		created, err := seedProfile(ctx, svcs, seed)
		if err != nil {
			if logger != nil {
				logger.ErrorContext(ctx, "failed to seed profile", "name", seed.Profile.Name, "error", err)
			}
			failures++
			continue
		}
		if logger != nil {
			msg := "profile already seeded"
			if created {
				msg = "seeded profile"
			}
			logger.InfoContext(ctx, msg, "name", seed.Profile.Name, "email", seed.Profile.Email)
		}
	}

	failures += seedContactMessages(ctx, svcs, logger)

	if failures > 0 {
		return fmt.Errorf("%d seed errors; check logs", failures)
	}
	return nil
}

// profileSeed describes one profile plus the records hanging off it.
type profileSeed struct {
	Profile   model.CreateProfileRequest
	Status    model.CaseStatus
	Admin     bool
	Debts     []model.CreateDebtRequest
	Documents []model.CreateUserDocumentRequest
	Messages  []model.AppendUserMessageRequest
}

func seedProfiles() []profileSeed {
	due := time.Date(2026, 10, 15, 0, 0, 0, 0, time.UTC)
	adminID := seedAdminID

	return []profileSeed{
		{
			Profile: model.CreateProfileRequest{
				ID:         seedAdminID,
				Name:       "Ana Almeida",
				Document:   "390.533.447-05",
				Email:      "admin@crednova.dev",
				Phone:      "(11) 99999-0001",
				Address:    "Av. Paulista, 1000",
				City:       "São Paulo",
				State:      "SP",
				ZipCode:    "01310-100",
				PersonType: model.PersonTypeIndividual,
			},
			Status: model.CaseStatusCompleted,
			Admin:  true,
		},
		{
			Profile: model.CreateProfileRequest{
				ID:         seedMariaID,
				Name:       "Maria Silva",
				Document:   "529.982.247-25",
				Email:      "maria@crednova.dev",
				Phone:      "(11) 98888-0002",
				Address:    "Rua das Flores, 45",
				City:       "Campinas",
				State:      "SP",
				ZipCode:    "13010-000",
				PersonType: model.PersonTypeIndividual,
			},
			Status: model.CaseStatusUnderReview,
			Debts: []model.CreateDebtRequest{
				{
					UserID:      seedMariaID,
					Document:    "529.982.247-25",
					Creditor:    "Banco Alfa",
					AmountCents: 125000,
					DueDate:     &due,
					Status:      model.DebtStatusOverdue,
				},
				{
					UserID:      seedMariaID,
					Document:    "529.982.247-25",
					Creditor:    "Financeira Beta",
					AmountCents: 48900,
					Status:      model.DebtStatusNegotiating,
				},
			},
			Documents: []model.CreateUserDocumentRequest{
				{
					UserID:   seedMariaID,
					Filename: "comprovante-residencia.pdf",
					FileType: "application/pdf",
					FileSize: 204800,
					FileURL:  "https://storage.crednova.dev/dev/comprovante-residencia.pdf",
				},
			},
			Messages: []model.AppendUserMessageRequest{
				{
					UserID: seedMariaID,
					Body:   "Olá, gostaria de saber o andamento da análise das minhas dívidas.",
				},
				{
					UserID:    seedMariaID,
					AdminID:   &adminID,
					Body:      "Olá Maria! Sua análise está em andamento, retornamos em breve com propostas.",
					FromAdmin: true,
				},
			},
		},
		{
			Profile: model.CreateProfileRequest{
				ID:         seedCarlosID,
				Name:       "Carlos Souza",
				Document:   "168.995.350-09",
				Email:      "carlos@crednova.dev",
				Phone:      "(21) 97777-0003",
				Address:    "Rua do Porto, 12",
				City:       "Rio de Janeiro",
				State:      "RJ",
				ZipCode:    "20010-000",
				PersonType: model.PersonTypeIndividual,
			},
			Status: model.CaseStatusProposalsAvailable,
			Debts: []model.CreateDebtRequest{
				{
					UserID:      seedCarlosID,
					Document:    "168.995.350-09",
					Creditor:    "Cartões Gama",
					AmountCents: 310050,
					Status:      model.DebtStatusPending,
				},
			},
		},
		{
			Profile: model.CreateProfileRequest{
				ID:         seedJoaoID,
				Name:       "João Pereira ME",
				Document:   "11.222.333/0001-81",
				Email:      "joao@crednova.dev",
				Phone:      "(31) 96666-0004",
				Address:    "Av. Central, 900",
				City:       "Belo Horizonte",
				State:      "MG",
				ZipCode:    "30110-000",
				PersonType: model.PersonTypeCompany,
			},
			Status: model.CaseStatusPending,
		},
	}
}

// seedProfile creates one profile and its child records. Child records are
// only written when the profile itself was just created, so reruns do not
// duplicate them.
func seedProfile(ctx context.Context, svcs Services, seed profileSeed) (bool, error) {
	req := seed.Profile
	if _, err := svcs.profiles.Create(ctx, &req); err != nil {
		if errors.Is(err, data.ErrDocumentTaken) {
			return false, nil
		}
		return false, fmt.Errorf("create profile: %w", err)
	}

	if seed.Status != "" && seed.Status != model.CaseStatusPending {
		if _, err := svcs.profiles.UpdateStatus(ctx, seed.Profile.ID, seed.Status); err != nil {
			return true, fmt.Errorf("set case status: %w", err)
		}
	}

	if seed.Admin {
		if _, err := svcs.roles.Grant(ctx, seed.Profile.ID, data.RoleAdmin); err != nil {
			return true, fmt.Errorf("grant admin role: %w", err)
		}
	}

	for _, debt := range seed.Debts {
		debtReq := debt
		if _, err := svcs.debts.Create(ctx, &debtReq); err != nil {
			return true, fmt.Errorf("create debt for %s: %w", debt.Creditor, err)
		}
	}

	for _, doc := range seed.Documents {
		docReq := doc
		if _, err := svcs.documents.Create(ctx, &docReq); err != nil {
			return true, fmt.Errorf("create document %s: %w", doc.Filename, err)
		}
	}

	for _, msg := range seed.Messages {
		msgReq := msg
		if _, err := svcs.messages.Append(ctx, &msgReq); err != nil {
			return true, fmt.Errorf("append message: %w", err)
		}
	}

	return true, nil
}

// seedContactMessages fills the public contact inbox once. Contact messages
// have no natural key, so an empty inbox is the rerun guard.
func seedContactMessages(ctx context.Context, svcs Services, logger *slog.Logger) int {
	count, err := svcs.contacts.Count(ctx, model.MessagesListOptions{})
	if err != nil {
		if logger != nil {
			logger.ErrorContext(ctx, "failed to count contact messages", "error", err)
		}
		return 1
	}
	if count > 0 {
		if logger != nil {
			logger.InfoContext(ctx, "contact messages already seeded", "count", count)
		}
		return 0
	}

	phone := "(41) 95555-0005"
	seeds := []model.CreateContactMessageRequest{
		{
			Name:    "Fernanda Lima",
			Email:   "fernanda@example.com",
			Phone:   &phone,
			Message: "Quero limpar meu nome, como funciona o processo de vocês?",
		},
		{
			Name:    "Roberto Dias",
			Email:   "roberto@example.com",
			Message: "Tenho dívidas em três bancos diferentes, vocês conseguem negociar todas?",
		},
	}

	failures := 0
	for _, req := range seeds {
		msgReq := req
		if _, err := svcs.contacts.Create(ctx, &msgReq); err != nil {
			if logger != nil {
				logger.ErrorContext(ctx, "failed to seed contact message", "from", req.Email, "error", err)
			}
			failures++
			continue
		}
		if logger != nil {
			logger.InfoContext(ctx, "seeded contact message", "from", req.Email)
		}
	}
	return failures
}
