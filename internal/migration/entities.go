package migration

import (
	"context"
	"fmt"

	"github.com/racker/rackspace-cloudmonitoring-migration-tool/internal/models"
)

// migrateEntities brings every node onto an entity. Nodes whose entity
// could not be created or updated are dropped from the result.
func (m *Migrator) migrateEntities(ctx context.Context, nodes []models.SourceNode) ([]EntityPair, error) {
	m.logf("=== Entities ===")

	entities, err := m.cache.Entities(ctx)
	if err != nil {
		return nil, err
	}
	matches := MatchEntities(nodes, entities)

	var pairs []EntityPair
	for _, node := range nodes {
		if err := m.checkpoint(ctx); err != nil {
			return pairs, err
		}
		existing := matches[node.ID]
		if existing != nil {
			m.debugf("  match: node %s -> entity %s", node.ID, existing.ID)
		}
		entity, err := m.migrateEntity(ctx, node, existing)
		if err != nil {
			return pairs, err
		}
		if entity != nil {
			pairs = append(pairs, EntityPair{Node: node, Entity: entity})
		}
	}
	return pairs, nil
}

func (m *Migrator) migrateEntity(ctx context.Context, node models.SourceNode, existing *models.Entity) (*models.Entity, error) {
	desired := BuildEntity(node)
	action, delta := Reconcile(desired, recordPayload(existing), models.NodeRefKey)
	item := models.ItemResult{Stage: models.StageEntities, SourceID: node.ID, Label: node.Name, Action: action}
	m.debugf("  entity %s payload: %v", node.Name, delta)

	switch action {
	case models.ActionUnchanged:
		item.TargetID = existing.ID
		m.record(item)
		return existing, nil

	case models.ActionCreated:
		ok, err := m.confirm(fmt.Sprintf("Create entity %q?", node.Name))
		if err != nil {
			return nil, err
		}
		if !ok {
			item.Action, item.Detail = models.ActionSkipped, "declined"
			m.record(item)
			return nil, nil
		}
		var entity *models.Entity
		if m.Options.DryRun {
			entity = &models.Entity{}
			if err := decodePayload(delta, entity); err != nil {
				return nil, err
			}
			entity.ID = m.cache.pendingID("entity")
		} else {
			entity, err = m.Target.CreateEntity(ctx, delta)
			if err != nil {
				if abortErr(ctx, err) {
					return nil, err
				}
				item.Action, item.Detail = models.ActionFailed, err.Error()
				m.record(item)
				return nil, nil
			}
		}
		m.cache.putEntity(*entity)
		item.TargetID = entity.ID
		m.record(item)
		return entity, nil

	default:
		item.TargetID = existing.ID
		item.Detail = fieldNames(delta)
		ok, err := m.confirm(fmt.Sprintf("Update entity %q (%s)?", existing.Label, item.Detail))
		if err != nil {
			return nil, err
		}
		if !ok {
			item.Action, item.Detail = models.ActionSkipped, "declined"
			m.record(item)
			return nil, nil
		}
		entity := existing
		if !m.Options.DryRun {
			entity, err = m.Target.UpdateEntity(ctx, existing.ID, delta)
			if err != nil {
				if abortErr(ctx, err) {
					return nil, err
				}
				item.Action, item.Detail = models.ActionFailed, err.Error()
				m.record(item)
				return nil, nil
			}
		}
		m.cache.putEntity(*entity)
		m.record(item)
		return entity, nil
	}
}
