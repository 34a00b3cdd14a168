package migration

import "github.com/racker/rackspace-cloudmonitoring-migration-tool/internal/models"

// MatchEntity finds the existing entity for a node. A stored node id in
// the entity metadata wins over any address overlap; among address matches
// the first candidate in list order wins.
func MatchEntity(node models.SourceNode, candidates []models.Entity) *models.Entity {
	for i := range candidates {
		if refersTo(candidates[i], node) {
			e := candidates[i]
			return &e
		}
	}
	for i := range candidates {
		if sharesPublicAddress(candidates[i], node) {
			e := candidates[i]
			return &e
		}
	}
	return nil
}

// MatchEntities decides the entity for every node at once. Cross-reference
// matches are assigned first, then address matches among the candidates no
// other node has claimed. Nodes without a match are absent from the result.
func MatchEntities(nodes []models.SourceNode, candidates []models.Entity) map[string]*models.Entity {
	matches := make(map[string]*models.Entity, len(nodes))
	claimed := make(map[int]bool)

	for _, node := range nodes {
		for i := range candidates {
			if !claimed[i] && refersTo(candidates[i], node) {
				e := candidates[i]
				matches[node.ID] = &e
				claimed[i] = true
				break
			}
		}
	}
	for _, node := range nodes {
		if _, ok := matches[node.ID]; ok {
			continue
		}
		for i := range candidates {
			if claimed[i] {
				continue
			}
			if sharesPublicAddress(candidates[i], node) {
				e := candidates[i]
				matches[node.ID] = &e
				claimed[i] = true
				break
			}
		}
	}
	return matches
}

func refersTo(e models.Entity, node models.SourceNode) bool {
	return node.ID != "" && e.Metadata[models.NodeRefKey] == node.ID
}

func sharesPublicAddress(e models.Entity, node models.SourceNode) bool {
	have := make(map[string]bool)
	for _, ip := range models.PublicAddresses(e.IPAddresses) {
		have[ip] = true
	}
	for _, ip := range models.PublicAddresses(node.IPAddresses) {
		if have[ip] {
			return true
		}
	}
	return false
}

// MatchCheck finds the existing check created from a source check.
func MatchCheck(check models.SourceCheck, candidates []models.Check) *models.Check {
	for i := range candidates {
		if check.ID != "" && candidates[i].Metadata[models.CheckRefKey] == check.ID {
			c := candidates[i]
			return &c
		}
	}
	return nil
}

// MatchNotification finds an existing notification with the same type and
// address.
func MatchNotification(kind, address string, candidates []models.Notification) *models.Notification {
	for i := range candidates {
		n := candidates[i]
		if n.Type == kind && n.Address() == address {
			return &n
		}
	}
	return nil
}

// MatchPlan finds a notification plan by label.
func MatchPlan(label string, plans []models.NotificationPlan) *models.NotificationPlan {
	for i := range plans {
		if plans[i].Label == label {
			p := plans[i]
			return &p
		}
	}
	return nil
}
