package tools

import (
	"context"

	"github.com/ctxhub/ctxhub/pkg/memory"
)

// SaveMemoryResult confirms a save_memory call.
type SaveMemoryResult struct {
	DocID    int64  `json:"doc_id"`
	Category string `json:"category"`
	Topic    string `json:"topic"`
}

// Confirmation is the generic result of a mutation tool.
type Confirmation struct {
	DocID   int64  `json:"doc_id,omitempty"`
	Message string `json:"message"`
}

// RegisterMemoryTools binds the memory engine operations to the registry.
func RegisterMemoryTools(reg *Registry, eng *memory.Engine) error {
	defs := []Definition{
		{
			Name:        "save_memory",
			Description: "Save a memory to long-term storage",
			Parameters: []Parameter{
				{Name: "category", Type: "string", Description: "Category of the memory (e.g. architecture, preference, bug_fix)", Required: true},
				{Name: "topic", Type: "string", Description: "Short descriptive title", Required: true},
				{Name: "content", Type: "string", Description: "Detailed memory text", Required: true},
			},
			Handler: func(ctx context.Context, params map[string]interface{}) (interface{}, error) {
				category := strArg(params, "category")
				topic := strArg(params, "topic")
				id, err := eng.Save(ctx, category, topic, strArg(params, "content"))
				if err != nil {
					return nil, err
				}
				return SaveMemoryResult{DocID: id, Category: category, Topic: topic}, nil
			},
		},
		{
			Name:        "query_memory",
			Description: "Query memories using hybrid keyword and semantic search",
			Parameters: []Parameter{
				{Name: "query", Type: "string", Description: "Natural language search string", Required: true},
				{Name: "top_k", Type: "integer", Description: "Number of results to return", Default: 3},
			},
			Handler: func(ctx context.Context, params map[string]interface{}) (interface{}, error) {
				topK, err := intArg(params, "top_k")
				if err != nil {
					return nil, err
				}
				return eng.Query(ctx, strArg(params, "query"), int(topK))
			},
		},
		{
			Name:        "update_memory",
			Description: "Update a memory's category, topic, or content by id",
			Parameters: []Parameter{
				{Name: "doc_id", Type: "integer", Description: "Id of the memory to update", Required: true},
				{Name: "category", Type: "string", Description: "New category"},
				{Name: "topic", Type: "string", Description: "New topic"},
				{Name: "content", Type: "string", Description: "New content"},
			},
			Handler: func(ctx context.Context, params map[string]interface{}) (interface{}, error) {
				id, err := intArg(params, "doc_id")
				if err != nil {
					return nil, err
				}
				err = eng.Update(ctx, id,
					optStrArg(params, "category"),
					optStrArg(params, "topic"),
					optStrArg(params, "content"))
				if err != nil {
					return nil, err
				}
				return Confirmation{DocID: id, Message: "memory updated"}, nil
			},
		},
		{
			Name:        "delete_memory",
			Description: "Delete a memory by id",
			Parameters: []Parameter{
				{Name: "doc_id", Type: "integer", Description: "Id of the memory to delete", Required: true},
			},
			Handler: func(ctx context.Context, params map[string]interface{}) (interface{}, error) {
				id, err := intArg(params, "doc_id")
				if err != nil {
					return nil, err
				}
				if err := eng.Delete(ctx, id); err != nil {
					return nil, err
				}
				return Confirmation{DocID: id, Message: "memory deleted"}, nil
			},
		},
		{
			Name:        "verify_memory",
			Description: "Mark a memory as verified, refreshing its last_verified timestamp",
			Parameters: []Parameter{
				{Name: "doc_id", Type: "integer", Description: "Id of the memory to verify", Required: true},
			},
			Handler: func(ctx context.Context, params map[string]interface{}) (interface{}, error) {
				id, err := intArg(params, "doc_id")
				if err != nil {
					return nil, err
				}
				if err := eng.Verify(ctx, id); err != nil {
					return nil, err
				}
				return Confirmation{DocID: id, Message: "memory verified"}, nil
			},
		},
	}

	for _, def := range defs {
		if err := reg.Register(def); err != nil {
			return err
		}
	}
	return nil
}
