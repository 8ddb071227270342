package billing

import (
	"context"
	"log"
	"strconv"
	"time"

	"github.com/conceptra/autopay/app/models"
	"github.com/conceptra/autopay/internal/pkg/env"
	"github.com/conceptra/autopay/internal/pkg/gateway"
	"github.com/conceptra/autopay/internal/pkg/store"
)

// Config carries the plan identifiers and the two business-policy choices
// the source left open: when a plan upgrade takes effect, and whether a
// replacement subscription starts immediately or after a delay.
type Config struct {
	IntroPlanID string
	MainPlanID  string

	// ScheduleChangeAt is passed to the gateway on upgrade:
	// gateway.ScheduleChangeCycleEnd (default, avoids double-charging the
	// running cycle) or gateway.ScheduleChangeNow.
	ScheduleChangeAt string

	// ReplacementStartDelay > 0 makes a replacement subscription start at
	// now+delay and be persisted as scheduled instead of active.
	ReplacementStartDelay time.Duration

	// TotalCount is the billing-cycle count for subscriptions this service
	// creates.
	TotalCount int
}

// ConfigFromEnv loads the processor configuration from environment.
func ConfigFromEnv() Config {
	totalCount := 48
	if raw := env.GetEnv("SUBSCRIPTION_TOTAL_COUNT", ""); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			totalCount = n
		}
	}
	return Config{
		IntroPlanID:           env.GetEnv("INTRO_PLAN_ID", ""),
		MainPlanID:            env.GetEnv("MAIN_PLAN_ID", ""),
		ScheduleChangeAt:      env.GetEnv("UPGRADE_SCHEDULE_CHANGE_AT", gateway.ScheduleChangeCycleEnd),
		ReplacementStartDelay: env.GetDuration("REPLACEMENT_START_DELAY", 0),
		TotalCount:            totalCount,
	}
}

// Processor applies verified webhook events to subscription state. All
// collaborators are injected; the processor holds no global handles and no
// in-process locks (the gateway is the source of truth for current plan,
// the record store is last-write-wins on per-event-owned fields).
type Processor struct {
	gw      gateway.Client
	records store.RecordStore
	repo    Repository
	cfg     Config
	now     func() time.Time
}

// NewProcessor wires a processor from its collaborators.
func NewProcessor(gw gateway.Client, records store.RecordStore, repo Repository, cfg Config) *Processor {
	if cfg.ScheduleChangeAt == "" {
		cfg.ScheduleChangeAt = gateway.ScheduleChangeCycleEnd
	}
	if cfg.TotalCount <= 0 {
		cfg.TotalCount = 48
	}
	return &Processor{
		gw:      gw,
		records: records,
		repo:    repo,
		cfg:     cfg,
		now:     time.Now,
	}
}

// Process dispatches a verified, parsed event. ErrNotApplicable means the
// event needs no action and should be acknowledged; any other error means
// processing failed and the source should redeliver.
func (p *Processor) Process(ctx context.Context, evt *Envelope) error {
	switch evt.Kind {
	case EventSubscriptionActivated:
		return p.ApplyActivation(ctx, evt.Subscription)
	case EventPaymentCaptured:
		return p.ApplyPaymentCaptured(ctx, evt.Payment)
	case EventSubscriptionCancelled:
		return p.ApplyCancellation(ctx, evt.Subscription)
	default:
		return ErrNotApplicable
	}
}

// ApplyActivation handles subscription.activated: persist the activation
// record, then schedule the intro→main upgrade when the activated plan is
// the introductory one. The activation record survives an upgrade failure
// on purpose; the subscription really is active at the intro tier, and
// redelivery retries only the upgrade.
func (p *Processor) ApplyActivation(ctx context.Context, sub *SubscriptionEntity) error {
	if sub == nil || sub.ID == "" || sub.PlanID == "" {
		return ErrNotApplicable
	}

	existing, err := p.records.GetRecord(ctx, sub.ID)
	if err != nil {
		return &PersistenceError{Op: "read record", Err: err}
	}
	if existing != nil {
		if existing.Status == models.SubscriptionStatusCancelled {
			// Cancelled is terminal; nothing may reactivate it.
			return nil
		}
		if existing.IsUpgraded {
			// Redelivery after a completed upgrade: already in target state.
			return nil
		}
	}

	now := p.now().UTC()
	nowISO := now.Format(time.RFC3339)

	if existing == nil {
		rec := store.Record{
			SubscriptionID: sub.ID,
			CustomerID:     sub.CustomerID,
			Status:         models.SubscriptionStatusActive,
			OriginalPlanID: sub.PlanID,
			CurrentPlanID:  sub.PlanID,
			CreatedAt:      nowISO,
			ActivatedAt:    nowISO,
		}
		if err := p.records.SetRecord(ctx, sub.ID, rec); err != nil {
			return &PersistenceError{Op: "write activation record", Err: err}
		}
	} else {
		// Redelivery or late activation of a pending record: merge only the
		// fields this event owns, never rewrite set-once timestamps.
		fields := map[string]string{"status": models.SubscriptionStatusActive}
		if sub.CustomerID != "" {
			fields["customerId"] = sub.CustomerID
		}
		if existing.ActivatedAt == "" {
			fields["activatedAt"] = nowISO
		}
		if err := p.records.UpdateRecord(ctx, sub.ID, fields); err != nil {
			return &PersistenceError{Op: "update activation record", Err: err}
		}
	}
	p.mirrorRecord(ctx, sub.ID)

	if sub.PlanID != p.cfg.IntroPlanID {
		// Direct activation on the main (or an unmapped) plan needs no
		// upgrade step.
		return nil
	}

	if err := p.gw.UpdateSubscription(ctx, sub.ID, gateway.UpdateSubscriptionInput{
		PlanID:           p.cfg.MainPlanID,
		ScheduleChangeAt: p.cfg.ScheduleChangeAt,
	}); err != nil {
		return &GatewayError{Op: "upgrade subscription " + sub.ID, Err: err}
	}

	if err := p.records.UpdateRecord(ctx, sub.ID, map[string]string{
		"currentPlanId": p.cfg.MainPlanID,
		"isUpgraded":    "true",
		"upgradedAt":    nowISO,
	}); err != nil {
		return &PersistenceError{Op: "write upgrade record", Err: err}
	}
	p.mirrorRecord(ctx, sub.ID)

	return nil
}

// ApplyPaymentCaptured handles payment.captured for flows where the
// upgrade replaces the subscription instead of mutating it: cancel the
// intro subscription and create a fresh one on the main plan for the same
// customer. The customer id comes from the invoice, never the payment.
func (p *Processor) ApplyPaymentCaptured(ctx context.Context, pay *PaymentEntity) error {
	if pay == nil || pay.InvoiceID == "" {
		return ErrNotApplicable
	}

	inv, err := p.gw.FetchInvoice(ctx, pay.InvoiceID)
	if err != nil {
		return &GatewayError{Op: "fetch invoice " + pay.InvoiceID, Err: err}
	}
	if inv.CustomerID == "" || inv.SubscriptionID == "" {
		return ErrNotApplicable
	}

	oldSub, err := p.gw.FetchSubscription(ctx, inv.SubscriptionID)
	if err != nil {
		return &GatewayError{Op: "fetch subscription " + inv.SubscriptionID, Err: err}
	}
	if oldSub.PlanID != p.cfg.IntroPlanID {
		// Already on the main plan, or a plan this flow does not manage.
		return nil
	}
	if oldSub.Status == "cancelled" || oldSub.Status == "completed" {
		// Redelivery after the cancel already went through. If the earlier
		// create also succeeded this is a clean no-op; if it failed the
		// lineage is in the known manual-reconciliation state and must not
		// be cancelled again.
		return nil
	}

	existing, err := p.records.GetRecord(ctx, inv.SubscriptionID)
	if err != nil {
		return &PersistenceError{Op: "read record", Err: err}
	}
	if existing != nil && existing.Status == models.SubscriptionStatusCancelled {
		return nil
	}

	if err := p.gw.CancelSubscription(ctx, inv.SubscriptionID); err != nil && !gateway.IsAlreadyCancelled(err) {
		return &GatewayError{Op: "cancel subscription " + inv.SubscriptionID, Err: err}
	}

	now := p.now().UTC()
	in := gateway.CreateSubscriptionInput{
		PlanID:         p.cfg.MainPlanID,
		CustomerID:     inv.CustomerID,
		TotalCount:     p.cfg.TotalCount,
		NotifyCustomer: true,
	}
	status := models.SubscriptionStatusActive
	startsAt := ""
	if p.cfg.ReplacementStartDelay > 0 {
		start := now.Add(p.cfg.ReplacementStartDelay)
		in.StartAt = &start
		status = models.SubscriptionStatusScheduled
		startsAt = start.Format(time.RFC3339)
	}

	newSub, err := p.gw.CreateSubscription(ctx, in)
	if err != nil {
		// The cancel cannot be rolled back on the gateway; this lineage now
		// needs manual reconciliation.
		log.Printf("SEVERE: subscription %s cancelled but replacement creation failed for customer %s: %v",
			inv.SubscriptionID, inv.CustomerID, err)
		return &GatewayError{Op: "create replacement subscription", Irreversible: true, Err: err}
	}

	nowISO := now.Format(time.RFC3339)
	rec := store.Record{
		SubscriptionID: newSub.ID,
		CustomerID:     inv.CustomerID,
		Status:         status,
		OriginalPlanID: p.cfg.IntroPlanID,
		CurrentPlanID:  p.cfg.MainPlanID,
		IsUpgraded:     true,
		CreatedAt:      nowISO,
		UpgradedAt:     nowISO,
		StartsAt:       startsAt,
	}
	if err := p.records.SetRecord(ctx, newSub.ID, rec); err != nil {
		return &PersistenceError{Op: "write replacement record", Err: err}
	}

	// Old record stays behind as a tombstone of the lineage.
	if err := p.records.UpdateRecord(ctx, inv.SubscriptionID, map[string]string{
		"status": models.SubscriptionStatusCancelled,
	}); err != nil {
		return &PersistenceError{Op: "tombstone old record", Err: err}
	}
	p.mirrorRecord(ctx, newSub.ID)
	p.mirrorRecord(ctx, inv.SubscriptionID)

	return nil
}

// ApplyCancellation marks the record cancelled. Terminal: no later event
// moves the record out of this state.
func (p *Processor) ApplyCancellation(ctx context.Context, sub *SubscriptionEntity) error {
	if sub == nil || sub.ID == "" {
		return ErrNotApplicable
	}

	existing, err := p.records.GetRecord(ctx, sub.ID)
	if err != nil {
		return &PersistenceError{Op: "read record", Err: err}
	}
	if existing == nil || existing.Status == models.SubscriptionStatusCancelled {
		return nil
	}

	if err := p.records.UpdateRecord(ctx, sub.ID, map[string]string{
		"status": models.SubscriptionStatusCancelled,
	}); err != nil {
		return &PersistenceError{Op: "write cancellation", Err: err}
	}
	p.mirrorRecord(ctx, sub.ID)
	return nil
}

// mirrorRecord copies the live record into the relational mirror. The
// key-value store is authoritative for ack semantics; mirror writes are
// best-effort and only logged on failure.
func (p *Processor) mirrorRecord(ctx context.Context, subscriptionID string) {
	if p.repo == nil {
		return
	}
	rec, err := p.records.GetRecord(ctx, subscriptionID)
	if err != nil || rec == nil {
		if err != nil {
			log.Printf("mirror read for %s failed: %v", subscriptionID, err)
		}
		return
	}

	row := &models.SubscriptionRecord{
		Provider:       models.BillingProviderRazorpay,
		SubscriptionID: rec.SubscriptionID,
		CustomerID:     rec.CustomerID,
		Status:         rec.Status,
		OriginalPlanID: rec.OriginalPlanID,
		CurrentPlanID:  rec.CurrentPlanID,
		IsUpgraded:     rec.IsUpgraded,
		ActivatedAt:    parseTimePtr(rec.ActivatedAt),
		UpgradedAt:     parseTimePtr(rec.UpgradedAt),
		StartsAt:       parseTimePtr(rec.StartsAt),
	}
	if err := p.repo.UpsertSubscriptionMirror(row); err != nil {
		log.Printf("mirror upsert for %s failed: %v", subscriptionID, err)
	}
}

func parseTimePtr(iso string) *time.Time {
	if iso == "" {
		return nil
	}
	t, err := time.Parse(time.RFC3339, iso)
	if err != nil {
		return nil
	}
	return &t
}
