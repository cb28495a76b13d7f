// Package assistant wires the shop workflow and the knowledge base into a
// tool-calling conversational agent.
package assistant

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"

	shoperrors "github.com/abgdnv/shopbot/internal/errors"
	"github.com/abgdnv/shopbot/internal/knowledge"
	"github.com/abgdnv/shopbot/internal/service"
	pkgconfig "github.com/abgdnv/shopbot/pkg/config"
)

const systemPrompt = "You are a helpful e-commerce assistant. " +
	"Use the available tools to answer questions about products, orders, and store policies. " +
	"Prices are in cents. Format responses in markdown."

// Assistant holds one conversation with the model. Not safe for concurrent
// use; each chat session gets its own instance.
type Assistant struct {
	g       *genkit.Genkit
	model   string
	logger  *slog.Logger
	tools   []ai.ToolRef
	history []*ai.Message
}

// New registers the shop tools on the genkit instance and returns an
// assistant ready to chat.
func New(g *genkit.Genkit, svc service.ShopService, kb *knowledge.Store, cfg pkgconfig.AIConfig, logger *slog.Logger) *Assistant {
	return &Assistant{
		g:      g,
		model:  cfg.Model,
		logger: logger.With("component", "assistant"),
		tools:  defineTools(g, svc, kb),
	}
}

// Chat sends one user turn to the model and returns its reply. The turn and
// the reply are kept in the conversation history for subsequent calls.
func (a *Assistant) Chat(ctx context.Context, userInput string) (string, error) {
	a.history = append(a.history, ai.NewUserMessage(ai.NewTextPart(userInput)))

	resp, err := genkit.Generate(ctx, a.g,
		ai.WithModelName(a.model),
		ai.WithSystem(systemPrompt),
		ai.WithMessages(a.history...),
		ai.WithTools(a.tools...),
	)
	if err != nil {
		// Drop the failed turn so a retry does not duplicate it.
		a.history = a.history[:len(a.history)-1]
		return "", fmt.Errorf("failed to generate reply: %w", err)
	}

	a.history = append(a.history, resp.Message)
	return resp.Text(), nil
}

// HistoryLength reports the number of messages accumulated so far.
func (a *Assistant) HistoryLength() int {
	return len(a.history)
}

func defineTools(g *genkit.Genkit, svc service.ShopService, kb *knowledge.Store) []ai.ToolRef {
	getProductInfo := genkit.DefineTool(
		g, "getProductInfo", "Retrieves information about a specific product.",
		func(ctx *ai.ToolContext, input struct {
			ProductName string `json:"product_name" jsonschema_description:"The name of the product to retrieve."`
		}) (string, error) {
			product, err := svc.GetProductInfo(ctx.Context, input.ProductName)
			return productReply(product, err)
		},
	)

	checkOrderStatus := genkit.DefineTool(
		g, "checkOrderStatus", "Checks the status of a specific order.",
		func(ctx *ai.ToolContext, input struct {
			OrderID string `json:"order_id" jsonschema_description:"The ID of the order to check."`
		}) (string, error) {
			order, err := svc.CheckOrderStatus(ctx.Context, input.OrderID)
			return orderReply(order, err)
		},
	)

	createOrder := genkit.DefineTool(
		g, "createOrder", "Creates a new order for a specific product.",
		func(ctx *ai.ToolContext, input struct {
			ProductName string `json:"product_name" jsonschema_description:"The name of the product to order."`
			Quantity    int32  `json:"quantity" jsonschema_description:"The quantity of the product to order."`
		}) (string, error) {
			order, err := svc.CreateOrder(ctx.Context, input.ProductName, input.Quantity)
			return orderReply(order, err)
		},
	)

	searchPolicies := genkit.DefineTool(
		g, "searchPolicies", "Searches the store policy documents for information relevant to a question.",
		func(ctx *ai.ToolContext, input struct {
			Query string `json:"query" jsonschema_description:"The question to look up in the store policies."`
		}) (string, error) {
			results, err := kb.Search(ctx.Context, input.Query, 3)
			if err != nil {
				return "", err
			}
			return policiesReply(results), nil
		},
	)

	return []ai.ToolRef{getProductInfo, checkOrderStatus, createOrder, searchPolicies}
}

// productReply renders a product lookup for the model. Domain errors become
// plain sentences the model can relay to the user; anything else propagates.
func productReply(product *service.ProductDto, err error) (string, error) {
	if err != nil {
		if errors.Is(err, shoperrors.ErrProductNotFound) {
			return "Product not found.", nil
		}
		return "", err
	}
	return asJSON(product)
}

func orderReply(order *service.OrderDto, err error) (string, error) {
	if err != nil {
		switch {
		case errors.Is(err, shoperrors.ErrProductNotFound):
			return "Product not found.", nil
		case errors.Is(err, shoperrors.ErrOrderNotFound):
			return "Order not found.", nil
		case errors.Is(err, shoperrors.ErrOutOfStock):
			return "Product out of stock.", nil
		case errors.Is(err, shoperrors.ErrInvalidQuantity):
			return "Quantity must be a positive integer.", nil
		}
		return "", err
	}
	return asJSON(order)
}

func policiesReply(results []knowledge.Result) string {
	if len(results) == 0 {
		return "No relevant policy found."
	}
	var sb strings.Builder
	for i, r := range results {
		if i > 0 {
			sb.WriteString("\n\n")
		}
		sb.WriteString(r.Content)
	}
	return sb.String()
}

func asJSON(v any) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("failed to marshal tool result: %w", err)
	}
	return string(data), nil
}
