package store

import (
	"context"
	"fmt"

	"MedMemory/backend/go/internal/database/neo4j"
	"MedMemory/backend/go/internal/models"

	neo4jdriver "github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

// GraphStore projects current facts into a subject graph.
type GraphStore interface {
	Project(ctx context.Context, v *FactVersion) error
	SubjectGraph(ctx context.Context, subjectID string) ([]GraphEdge, error)
}

// GraphEdge is one Subject -> fact relationship.
type GraphEdge struct {
	Relation  string `json:"relation"`
	Label     string `json:"label"`
	LineageID string `json:"lineage_id"`
	Key       string `json:"key"`
	Status    string `json:"status"`
	Version   int64  `json:"version"`
}

// Neo4jGraphStore is a GraphStore backed by Neo4j. Each lineage is one node
// that is overwritten with the latest version's properties.
type Neo4jGraphStore struct {
	client *neo4j.Neo4jClient
}

// NewNeo4jGraphStore creates a new Neo4jGraphStore.
func NewNeo4jGraphStore(client *neo4j.Neo4jClient) *Neo4jGraphStore {
	return &Neo4jGraphStore{client: client}
}

func graphLabels(kind models.FactKind) (label, relation string) {
	if kind == models.KindSymptom {
		return "Symptom", "EXPERIENCED"
	}
	return "Medication", "TAKES"
}

// projectionQuery builds the MERGE statement for v. Labels come from a fixed
// set so they can be inlined safely.
func projectionQuery(v *FactVersion) (string, map[string]interface{}) {
	label, relation := graphLabels(v.Kind)
	query := `
	MERGE (s:Subject {id: $subject_id})
	MERGE (f:` + label + ` {lineage_id: $lineage_id})
	SET f.key = $key, f.version = $version, f.status = $status,
	    f.valid_start = $valid_start, f.valid_end = $valid_end, f.provenance = $provenance
	MERGE (s)-[:` + relation + `]->(f)
	`
	var validEnd interface{}
	if v.ValidEnd != nil {
		validEnd = *v.ValidEnd
	}
	params := map[string]interface{}{
		"subject_id":  v.SubjectID,
		"lineage_id":  v.LineageID,
		"key":         v.Key,
		"version":     int64(v.Version),
		"status":      string(v.Status),
		"valid_start": v.ValidStart,
		"valid_end":   validEnd,
		"provenance":  v.Provenance,
	}
	return query, params
}

// Project upserts the lineage node of v and links it to the subject.
func (s *Neo4jGraphStore) Project(ctx context.Context, v *FactVersion) error {
	query, params := projectionQuery(v)
	_, err := s.client.ExecuteWrite(ctx, func(tx neo4jdriver.ManagedTransaction) (interface{}, error) {
		_, err := tx.Run(ctx, query, params)
		return nil, err
	})
	if err != nil {
		return fmt.Errorf("failed to project fact to neo4j: %w", err)
	}
	return nil
}

// SubjectGraph returns every fact node linked to the subject.
func (s *Neo4jGraphStore) SubjectGraph(ctx context.Context, subjectID string) ([]GraphEdge, error) {
	query := `
	MATCH (s:Subject {id: $subject_id})-[r]->(f)
	RETURN type(r) AS relation, labels(f)[0] AS label, f.lineage_id AS lineage_id,
	       f.key AS key, f.status AS status, f.version AS version
	ORDER BY f.valid_start DESC
	`
	result, err := s.client.ExecuteRead(ctx, func(tx neo4jdriver.ManagedTransaction) (interface{}, error) {
		res, err := tx.Run(ctx, query, map[string]interface{}{"subject_id": subjectID})
		if err != nil {
			return nil, err
		}
		records, err := res.Collect(ctx)
		if err != nil {
			return nil, err
		}
		edges := make([]GraphEdge, 0, len(records))
		for _, record := range records {
			m := record.AsMap()
			edges = append(edges, GraphEdge{
				Relation:  asString(m["relation"]),
				Label:     asString(m["label"]),
				LineageID: asString(m["lineage_id"]),
				Key:       asString(m["key"]),
				Status:    asString(m["status"]),
				Version:   asInt64(m["version"]),
			})
		}
		return edges, nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get subject graph from neo4j: %w", err)
	}
	return result.([]GraphEdge), nil
}

func asString(v interface{}) string {
	s, _ := v.(string)
	return s
}

func asInt64(v interface{}) int64 {
	n, _ := v.(int64)
	return n
}
