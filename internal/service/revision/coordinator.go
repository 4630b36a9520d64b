// Package revision runs the generation sagas: debit, two generator calls,
// sanitize, commit a version, and refund on any failure after the debit.
package revision

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"wbuilder/internal/config"
	"wbuilder/internal/domain"
	"wbuilder/internal/domain/models"
	"wbuilder/internal/domain/repositories"
	"wbuilder/internal/domain/services"
	domainllm "wbuilder/internal/domain/services/llm"
	"wbuilder/internal/policy"
	"wbuilder/internal/utils"
)

const (
	refundAttempts = 3
	refundBackoff  = 100 * time.Millisecond
)

// Coordinator implements the RevisionService interface
type Coordinator struct {
	projectRepo      repositories.ProjectRepository
	versionRepo      repositories.VersionRepository
	conversationRepo repositories.ConversationRepository
	userRepo         repositories.UserRepository
	txManager        repositories.TransactionManager
	ledger           services.CreditLedger
	generator        domainllm.CodeGenerator
	policy           *policy.Policy
	logger           *slog.Logger
	sleep            func(time.Duration)
}

// Dependencies groups the collaborators of a Coordinator
type Dependencies struct {
	Projects      repositories.ProjectRepository
	Versions      repositories.VersionRepository
	Conversations repositories.ConversationRepository
	Users         repositories.UserRepository
	TxManager     repositories.TransactionManager
	Ledger        services.CreditLedger
	Generator     domainllm.CodeGenerator
	Policy        *policy.Policy
	Logger        *slog.Logger
}

// NewCoordinator creates a new revision coordinator
func NewCoordinator(deps Dependencies) *Coordinator {
	return &Coordinator{
		projectRepo:      deps.Projects,
		versionRepo:      deps.Versions,
		conversationRepo: deps.Conversations,
		userRepo:         deps.Users,
		txManager:        deps.TxManager,
		ledger:           deps.Ledger,
		generator:        deps.Generator,
		policy:           deps.Policy,
		logger:           deps.Logger,
		sleep:            time.Sleep,
	}
}

var _ services.RevisionService = (*Coordinator)(nil)

// attempt is one run of the saga after the debit succeeded
type attempt struct {
	userID      string
	project     *models.Project
	instruction string
	cost        int
	initial     bool
	stream      bool
	observer    *services.StreamObserver
}

// CreateProject creates the project and runs its first generation
func (c *Coordinator) CreateProject(ctx context.Context, req *services.CreateProjectRequest) (*services.RevisionResult, error) {
	if err := validatePrompt(req.InitialPrompt); err != nil {
		return nil, fmt.Errorf("%w: initial_prompt: %v", domain.ErrValidation, err)
	}
	prompt := strings.TrimSpace(req.InitialPrompt)
	cost := c.policy.Credits.CreationCost

	if err := c.checkBalance(ctx, req.UserID, cost); err != nil {
		return nil, err
	}

	project := &models.Project{
		UserID:        req.UserID,
		Name:          utils.TruncateName(prompt, config.MaxProjectNameLength),
		InitialPrompt: prompt,
	}
	var userEntry *models.ConversationEntry
	err := c.txManager.ExecTx(ctx, func(ctx context.Context) error {
		if err := c.projectRepo.Create(ctx, project); err != nil {
			return err
		}
		var err error
		if userEntry, err = c.conversationRepo.Append(ctx, project.ID, models.RoleUser, prompt); err != nil {
			return err
		}
		if _, err := c.ledger.Debit(ctx, req.UserID, cost, project.ID); err != nil {
			return err
		}
		return c.userRepo.IncrementCreations(ctx, req.UserID)
	})
	if err != nil {
		return nil, c.storageError("create project", err)
	}

	c.logger.Info("project created",
		"project_id", project.ID,
		"user_id", req.UserID,
		"name", project.Name,
	)

	if c.policy.StarterTemplate.Enabled {
		if err := c.commitStarter(ctx, project); err != nil {
			c.logger.Warn("starter template not committed", "project_id", project.ID, "error", err)
		}
	}

	run := &attempt{
		userID:      req.UserID,
		project:     project,
		instruction: prompt,
		cost:        cost,
		initial:     true,
	}
	c.notifyEntry(run, userEntry)
	result, err := c.run(ctx, run)
	if err != nil {
		// The project and its history stay; hand it back with the failure
		failed := &services.RevisionResult{Project: c.reload(ctx, project)}
		failed.Balance, _ = c.ledger.Balance(context.WithoutCancel(ctx), req.UserID)
		return failed, err
	}
	return result, nil
}

// Revise runs one buffered revision
func (c *Coordinator) Revise(ctx context.Context, req *services.RevisionRequest) (*services.RevisionResult, error) {
	return c.revise(ctx, req, false, nil)
}

// ReviseStreaming runs one revision, forwarding entries and generation chunks
// to observer as they happen
func (c *Coordinator) ReviseStreaming(ctx context.Context, req *services.RevisionRequest, observer *services.StreamObserver) (*services.RevisionResult, error) {
	return c.revise(ctx, req, true, observer)
}

func (c *Coordinator) revise(ctx context.Context, req *services.RevisionRequest, stream bool, observer *services.StreamObserver) (*services.RevisionResult, error) {
	// Preconditions in order: ownership, instruction, balance
	project, err := c.projectRepo.GetByID(ctx, req.ProjectID, req.UserID)
	if err != nil {
		return nil, err
	}
	if err := validatePrompt(req.Instruction); err != nil {
		return nil, fmt.Errorf("%w: message: %v", domain.ErrValidation, err)
	}
	instruction := strings.TrimSpace(req.Instruction)
	cost := c.policy.Credits.RevisionCost
	if err := c.checkBalance(ctx, req.UserID, cost); err != nil {
		return nil, err
	}

	// The user entry and the debit commit together, so a debit that loses a
	// race with a concurrent one leaves no entry behind
	var userEntry *models.ConversationEntry
	err = c.txManager.ExecTx(ctx, func(ctx context.Context) error {
		var err error
		if userEntry, err = c.conversationRepo.Append(ctx, project.ID, models.RoleUser, instruction); err != nil {
			return err
		}
		_, err = c.ledger.Debit(ctx, req.UserID, cost, project.ID)
		return err
	})
	if err != nil {
		return nil, c.storageError("start revision", err)
	}

	run := &attempt{
		userID:      req.UserID,
		project:     project,
		instruction: instruction,
		cost:        cost,
		stream:      stream,
		observer:    observer,
	}
	c.notifyEntry(run, userEntry)
	return c.run(ctx, run)
}

// run executes the saga after the debit. Every failure path goes through fail,
// which refunds.
func (c *Coordinator) run(ctx context.Context, a *attempt) (*services.RevisionResult, error) {
	log := c.logger.With("project_id", a.project.ID, "user_id", a.userID, "generator", c.generator.Name())

	enhanced, err := c.generator.Complete(ctx, &domainllm.CompletionRequest{
		SystemRole:  c.policy.Prompts.EnhanceSystem,
		UserPayload: c.policy.EnhancePayload(a.instruction),
	})
	if err != nil {
		return nil, c.fail(ctx, a, "enhancement failed", err)
	}
	enhanced = strings.TrimSpace(enhanced)
	if enhanced == "" {
		// An empty enhancement is not fatal; generate from the raw instruction
		enhanced = a.instruction
	}

	generating := c.policy.Messages.GeneratingRevision
	if a.initial {
		generating = c.policy.Messages.GeneratingInitial
	}
	for _, content := range []string{c.policy.EnhancedMessage(enhanced), generating} {
		if err := c.appendAssistant(ctx, a, content); err != nil {
			return nil, c.fail(ctx, a, "record progress", err)
		}
	}

	genReq := &domainllm.CompletionRequest{
		SystemRole:  c.policy.Prompts.GenerateSystem,
		UserPayload: enhanced,
	}
	if !a.initial {
		genReq.PriorCode = a.project.CurrentCode
	}

	var raw string
	if a.stream {
		raw, err = c.collectStream(ctx, a, genReq)
	} else {
		raw, err = c.generator.Complete(ctx, genReq)
	}
	if err != nil {
		return nil, c.fail(ctx, a, "generation failed", err)
	}

	code := Sanitize(raw)
	if code == "" {
		return nil, c.fail(ctx, a, "generation returned no code", nil)
	}

	description := models.VersionDescriptionRevision
	closing := c.policy.Messages.Revised
	if a.initial {
		description = models.VersionDescriptionInitial
		closing = c.policy.Messages.Created
	}

	if err := ctx.Err(); err != nil {
		return nil, c.fail(ctx, a, "request abandoned", err)
	}

	var version *models.Version
	var closingEntry *models.ConversationEntry
	err = c.txManager.ExecTx(ctx, func(ctx context.Context) error {
		var err error
		if version, err = c.versionRepo.Append(ctx, a.project.ID, code, description); err != nil {
			return err
		}
		if _, err = c.versionRepo.SetCurrent(ctx, a.project.ID, version.ID); err != nil {
			return err
		}
		closingEntry, err = c.conversationRepo.Append(ctx, a.project.ID, models.RoleAssistant, closing)
		return err
	})
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, c.fail(ctx, a, "request abandoned", ctxErr)
		}
		// Nothing was committed; the attempt is paid back like any failure
		if refundErr := c.refund(ctx, a); refundErr != nil {
			log.Error("refund after commit failure", "error", refundErr)
		}
		return nil, c.storageError("commit version", err)
	}
	c.notifyEntry(a, closingEntry)

	project := c.reload(ctx, a.project)
	balance, err := c.ledger.Balance(ctx, a.userID)
	if err != nil {
		return nil, c.storageError("read balance", err)
	}

	log.Info("version committed",
		"version_id", version.ID,
		"description", description,
		"balance", balance,
	)
	return &services.RevisionResult{Project: project, Version: version, Balance: balance}, nil
}

// collectStream concatenates chunks in arrival order. A stream that ends
// because ctx was cancelled is a failure, whatever arrived before.
func (c *Coordinator) collectStream(ctx context.Context, a *attempt, req *domainllm.CompletionRequest) (string, error) {
	chunks, err := c.generator.CompleteStreaming(ctx, req)
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	for chunk := range chunks {
		if chunk.Err != nil {
			return "", chunk.Err
		}
		sb.WriteString(chunk.Text)
		if a.observer != nil && a.observer.OnChunk != nil {
			a.observer.OnChunk(chunk.Text)
		}
	}
	if err := ctx.Err(); err != nil {
		return "", fmt.Errorf("stream interrupted: %w", err)
	}
	return sb.String(), nil
}

// fail records the failure note and refunds. Both run detached from ctx so a
// disconnected caller still gets its credits back.
func (c *Coordinator) fail(ctx context.Context, a *attempt, reason string, cause error) error {
	detached := context.WithoutCancel(ctx)
	log := c.logger.With("project_id", a.project.ID, "user_id", a.userID)

	if err := c.appendAssistant(detached, a, c.policy.Messages.GenerationFailed); err != nil {
		log.Error("record generation failure", "error", err)
	}
	if err := c.refund(detached, a); err != nil {
		log.Error("refund failed", "amount", a.cost, "error", err)
		return fmt.Errorf("%s: refund failed: %v: %w", reason, err, domain.ErrInternal)
	}

	log.Warn("generation failed",
		"reason", reason,
		"error", cause,
		"refunded", a.cost,
	)
	return &domain.GenerationError{ProjectID: a.project.ID, Reason: reason, Cause: cause}
}

// refund retries the compensating credit; it must land for the ledger to balance
func (c *Coordinator) refund(ctx context.Context, a *attempt) error {
	ctx = context.WithoutCancel(ctx)
	var err error
	for i := 0; i < refundAttempts; i++ {
		if _, err = c.ledger.Refund(ctx, a.userID, a.cost, a.project.ID); err == nil {
			return nil
		}
		if i < refundAttempts-1 {
			c.sleep(refundBackoff * time.Duration(i+1))
		}
	}
	return err
}

func (c *Coordinator) appendAssistant(ctx context.Context, a *attempt, content string) error {
	entry, err := c.conversationRepo.Append(ctx, a.project.ID, models.RoleAssistant, content)
	if err != nil {
		return err
	}
	c.notifyEntry(a, entry)
	return nil
}

func (c *Coordinator) notifyEntry(a *attempt, entry *models.ConversationEntry) {
	if entry != nil && a.observer != nil && a.observer.OnEntry != nil {
		a.observer.OnEntry(*entry)
	}
}

// commitStarter makes the policy's starter template the first current version
func (c *Coordinator) commitStarter(ctx context.Context, project *models.Project) error {
	return c.txManager.ExecTx(ctx, func(ctx context.Context) error {
		v, err := c.versionRepo.Append(ctx, project.ID, c.policy.StarterTemplate.Code, models.VersionDescriptionStarter)
		if err != nil {
			return err
		}
		_, err = c.versionRepo.SetCurrent(ctx, project.ID, v.ID)
		return err
	})
}

func (c *Coordinator) checkBalance(ctx context.Context, userID string, cost int) error {
	balance, err := c.ledger.Balance(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return fmt.Errorf("user %s: %w", userID, domain.ErrUnauthorized)
		}
		return err
	}
	if balance < cost {
		return fmt.Errorf("balance %d below cost %d: %w", balance, cost, domain.ErrInsufficientCredits)
	}
	return nil
}

// reload returns the stored project, or the given one if it cannot be read
func (c *Coordinator) reload(ctx context.Context, project *models.Project) *models.Project {
	fresh, err := c.projectRepo.GetByID(context.WithoutCancel(ctx), project.ID, project.UserID)
	if err != nil {
		return project
	}
	return fresh
}

// storageError keeps classified errors and reports the rest as internal
func (c *Coordinator) storageError(op string, err error) error {
	if domain.KindOf(err) != domain.KindInternal {
		return err
	}
	c.logger.Error(op, "error", err)
	return fmt.Errorf("%s: %v: %w", op, err, domain.ErrInternal)
}

func validatePrompt(value string) error {
	return validation.Validate(strings.TrimSpace(value),
		validation.Required,
		validation.RuneLength(1, config.MaxPromptLength),
	)
}
