package migration

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/racker/rackspace-cloudmonitoring-migration-tool/internal/models"
)

var errNoAddress = errors.New("node has no usable address")

// migrateChecks migrates the supported checks of every entity pair. The
// result holds the checks that exist, or would exist, on the target.
func (m *Migrator) migrateChecks(ctx context.Context, pairs []EntityPair, monitors []models.SourceMonitor) ([]MigratedCheck, error) {
	m.logf("=== Checks ===")

	byID := make(map[string]models.SourceMonitor, len(monitors))
	for _, mon := range monitors {
		byID[mon.ID] = mon
	}

	var out []MigratedCheck
	for _, pair := range pairs {
		if err := m.checkpoint(ctx); err != nil {
			return out, err
		}
		migrated, err := m.migrateNodeChecks(ctx, pair, byID)
		out = append(out, migrated...)
		if err != nil {
			return out, err
		}
	}
	return out, nil
}

func (m *Migrator) migrateNodeChecks(ctx context.Context, pair EntityPair, monitors map[string]models.SourceMonitor) ([]MigratedCheck, error) {
	sourceChecks, err := m.Source.ListChecksForNode(ctx, pair.Node.ID)
	if err == nil {
		_, err = m.cache.Checks(ctx, pair.Entity.ID)
	}
	if err != nil {
		if abortErr(ctx, err) {
			return nil, err
		}
		m.record(models.ItemResult{
			Stage: models.StageChecks, SourceID: pair.Node.ID, Label: pair.Node.Name,
			Action: models.ActionFailed, Detail: err.Error(),
		})
		return nil, nil
	}

	var out []MigratedCheck
	for _, sc := range sourceChecks {
		if err := m.checkpoint(ctx); err != nil {
			return out, err
		}
		mc, err := m.migrateCheck(ctx, pair, sc, monitors)
		if err != nil {
			return out, err
		}
		if mc != nil {
			out = append(out, *mc)
		}
	}
	return out, nil
}

func (m *Migrator) migrateCheck(ctx context.Context, pair EntityPair, sc models.SourceCheck, monitors map[string]models.SourceMonitor) (*MigratedCheck, error) {
	item := models.ItemResult{Stage: models.StageChecks, SourceID: sc.ID, Label: pair.Node.Name + ":" + sc.Type}

	monitor, ok := monitors[sc.MonitorID]
	if !ok {
		item.Action, item.Detail = models.ActionSkipped, fmt.Sprintf("monitor %s not found", sc.MonitorID)
		m.record(item)
		return nil, nil
	}
	item.Label = CheckLabel(monitor, sc) + " on " + pair.Node.Name

	targetType, ok := TargetType(sc.Type)
	if !ok {
		item.Action, item.Detail = models.ActionUnsupported, fmt.Sprintf("check type %s", sc.Type)
		m.record(item)
		return nil, nil
	}

	cc := CheckContext{Monitor: monitor}
	if IsRemote(targetType) {
		zones, err := m.monitoringZones(ctx)
		if err == nil {
			cc.MonitoringZones = zones
			cc.TargetHostname, err = m.targetHostname(pair.Node)
		}
		if err != nil {
			if abortErr(ctx, err) {
				return nil, err
			}
			item.Action, item.Detail = models.ActionFailed, err.Error()
			m.record(item)
			return nil, nil
		}
	}

	payload, err := BuildCheck(sc, cc)
	if err != nil {
		item.Action, item.Detail = models.ActionFailed, err.Error()
		m.record(item)
		return nil, nil
	}

	existingChecks, err := m.cache.Checks(ctx, pair.Entity.ID)
	if err != nil {
		if abortErr(ctx, err) {
			return nil, err
		}
		item.Action, item.Detail = models.ActionFailed, err.Error()
		m.record(item)
		return nil, nil
	}
	existing := MatchCheck(sc, existingChecks)
	action, delta := Reconcile(payload, recordPayload(existing), models.CheckRefKey)
	item.Action = action
	m.debugf("  check %s payload: %v", item.Label, delta)

	mc := &MigratedCheck{Node: pair.Node, Entity: pair.Entity, Source: sc, Monitor: monitor}

	if action == models.ActionUnchanged {
		item.TargetID = existing.ID
		m.record(item)
		mc.Check = existing
		return mc, nil
	}

	if !m.Options.NoTest && !m.Options.DryRun {
		if passed, detail := m.testCheck(ctx, pair.Entity.ID, payload); !passed {
			ok, err := m.Gate.Override(fmt.Sprintf("Check %s failed its test (%s). Save anyway?", item.Label, detail))
			if err != nil {
				return nil, err
			}
			if !ok {
				item.Action, item.Detail = models.ActionSkipped, "test failed: "+detail
				m.record(item)
				return nil, nil
			}
		}
	}

	var question string
	if action == models.ActionCreated {
		question = fmt.Sprintf("Create check %s?", item.Label)
	} else {
		item.TargetID = existing.ID
		item.Detail = fieldNames(delta)
		question = fmt.Sprintf("Update check %s (%s)?", item.Label, item.Detail)
	}
	ok, err = m.confirm(question)
	if err != nil {
		return nil, err
	}
	if !ok {
		item.Action, item.Detail = models.ActionSkipped, "declined"
		m.record(item)
		return nil, nil
	}

	check, err := m.saveCheck(ctx, pair.Entity.ID, action, delta, existing)
	if err != nil {
		if abortErr(ctx, err) {
			return nil, err
		}
		item.Action, item.Detail = models.ActionFailed, err.Error()
		m.record(item)
		return nil, nil
	}
	m.cache.putCheck(*check)
	item.TargetID = check.ID
	m.record(item)
	mc.Check = check
	return mc, nil
}

func (m *Migrator) saveCheck(ctx context.Context, entityID string, action models.Action, delta models.Payload, existing *models.Check) (*models.Check, error) {
	switch {
	case m.Options.DryRun && action == models.ActionCreated:
		check := &models.Check{}
		if err := decodePayload(delta, check); err != nil {
			return nil, err
		}
		check.ID = m.cache.pendingID("check")
		check.EntityID = entityID
		return check, nil
	case m.Options.DryRun:
		return existing, nil
	case action == models.ActionCreated:
		return m.Target.CreateCheck(ctx, entityID, delta)
	default:
		return m.Target.UpdateCheck(ctx, entityID, existing.ID, delta)
	}
}

// testCheck runs the desired check once from the target. Every answering
// zone must report the target available.
func (m *Migrator) testCheck(ctx context.Context, entityID string, payload models.Payload) (bool, string) {
	if isPending(entityID) {
		return true, ""
	}
	results, err := m.Target.TestNewCheck(ctx, entityID, payload)
	if err != nil {
		return false, err.Error()
	}
	if len(results) == 0 {
		return false, "no results"
	}
	for _, r := range results {
		if !r.Available() {
			return false, "target unavailable"
		}
	}
	return true, ""
}

// monitoringZones resolves the zones remote checks poll from, once per run.
func (m *Migrator) monitoringZones(ctx context.Context) ([]string, error) {
	if m.zones != nil {
		return m.zones, nil
	}
	zones, err := m.cache.Zones(ctx)
	if err != nil {
		return nil, err
	}
	known := make(map[string]bool, len(zones))
	var all []string
	for _, z := range zones {
		known[z.ID] = true
		all = append(all, z.ID)
	}

	chosen := m.Options.MonitoringZones
	if len(chosen) == 0 {
		chosen = all
	}
	answer, err := m.ask("Monitoring zones for remote checks", strings.Join(chosen, ","))
	if err != nil {
		return nil, err
	}
	chosen = splitList(answer)
	if len(chosen) == 0 {
		return nil, errors.New("no monitoring zones selected")
	}
	for _, z := range chosen {
		if !known[z] {
			return nil, fmt.Errorf("unknown monitoring zone %q", z)
		}
	}
	m.zones = chosen
	m.logf("  Using monitoring zones: %s", strings.Join(chosen, ", "))
	return chosen, nil
}

// targetHostname picks the address remote checks probe for a node: the
// first public address by label order, then any address.
func (m *Migrator) targetHostname(node models.SourceNode) (string, error) {
	if ip, ok := m.hostnames[node.ID]; ok {
		return ip, nil
	}
	labels := models.OrderedLabels(node.IPAddresses)
	def := ""
	for _, l := range labels {
		if !strings.Contains(l, "private") {
			def = node.IPAddresses[l]
			break
		}
	}
	if def == "" && len(labels) > 0 {
		def = node.IPAddresses[labels[0]]
	}
	ip, err := m.ask(fmt.Sprintf("Target IP for %s", node.Name), def)
	if err != nil {
		return "", err
	}
	if ip == "" {
		return "", errNoAddress
	}
	m.hostnames[node.ID] = ip
	return ip, nil
}

// ask returns the default without prompting in a dry run.
func (m *Migrator) ask(question, def string) (string, error) {
	if m.Options.DryRun {
		return def, nil
	}
	return m.Gate.Ask(question, def)
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
