package graph

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino/compose"

	"github.com/empowering-agents/server/internal/agent/goals"
	"github.com/empowering-agents/server/internal/agent/graph/nodes"
	"github.com/empowering-agents/server/internal/agent/graph/observers"
	"github.com/empowering-agents/server/internal/agent/memory"
	"github.com/empowering-agents/server/internal/agent/model"
	"github.com/empowering-agents/server/internal/agent/personas"
	"github.com/empowering-agents/server/internal/agent/tools"
	"github.com/empowering-agents/server/internal/integrations/analytics"
	"github.com/empowering-agents/server/internal/observability"
	logx "github.com/empowering-agents/server/pkg/logger"
)

// Runner is a thin wrapper to execute the compiled graph with the public TurnInput.
type Runner interface {
	Invoke(ctx context.Context, in model.TurnInput) (*model.AgentResponse, error)
}

// Config holds everything needed to compose the full turn graph end-to-end.
type Config struct {
	Persona    personas.Persona
	ChatModels *nodes.ChatModels
	Memory     *memory.Store
	Goals      *goals.Tracker
	Tools      *tools.Registry
	Analytics  *analytics.Sink
	Metrics    *observability.Metrics
}

// GraphBuilder handles the construction of the agent turn graph
type GraphBuilder struct {
	config *Config
	graph  *compose.Graph[model.TurnInput, *model.AgentResponse]
}

type graphRunner struct {
	runnable compose.Runnable[model.TurnInput, *model.AgentResponse]
}

func (r *graphRunner) Invoke(ctx context.Context, in model.TurnInput) (*model.AgentResponse, error) {
	return r.runnable.Invoke(ctx, in, compose.WithCallbacks(observers.NewAllCallbacks()))
}

// BuildTurnGraph constructs, compiles, and wraps the interaction graph for one
// persona. The flow is a straight line: load context, analyze intent, parse,
// dispatch tools, assemble the persona prompt, generate, parse and persist.
func BuildTurnGraph(ctx context.Context, cfg Config) (Runner, error) {
	if cfg.Persona == nil {
		return nil, fmt.Errorf("persona is nil")
	}
	if cfg.ChatModels == nil || cfg.ChatModels.Intent == nil || cfg.ChatModels.Response == nil {
		return nil, fmt.Errorf("chat models are not properly initialized")
	}
	if cfg.Memory == nil {
		return nil, fmt.Errorf("memory store is nil")
	}
	if cfg.Goals == nil {
		return nil, fmt.Errorf("goal tracker is nil")
	}
	if cfg.Tools == nil {
		return nil, fmt.Errorf("tool registry is nil")
	}

	builder := &GraphBuilder{
		config: &cfg,
		graph: compose.NewGraph[model.TurnInput, *model.AgentResponse](
			compose.WithGenLocalState(func(ctx context.Context) *model.TurnState {
				return &model.TurnState{}
			}),
		),
	}

	builder.addNodes()
	builder.addEdges()

	runnable, err := builder.compile(ctx)
	if err != nil {
		return nil, err
	}

	logx.Debug().Str("persona", cfg.Persona.Profile().ID).Msg("Turn graph built successfully")
	return &graphRunner{runnable: runnable}, nil
}

// addNodes adds all processing nodes to the graph
func (b *GraphBuilder) addNodes() {
	b.graph.AddLambdaNode(nodes.NodeContextLoader,
		nodes.NewContextLoaderNode(b.config.Memory, b.config.Goals),
		compose.WithStatePreHandler(nodes.NewContextLoaderPreHandler()),
	)

	b.graph.AddChatModelNode(nodes.NodeIntentModel,
		b.config.ChatModels.Intent,
		compose.WithStatePostHandler(nodes.NewModelCostPostHandler(nodes.NodeIntentModel, b.config.ChatModels.IntentModelName)),
	)

	b.graph.AddLambdaNode(nodes.NodeIntentParser,
		nodes.NewIntentParserNode(),
		compose.WithStatePostHandler(nodes.NewIntentParserPostHandler(b.config.Metrics)),
	)

	b.graph.AddLambdaNode(nodes.NodeToolDispatch,
		nodes.NewToolDispatchNode(b.config.Tools, b.config.Metrics),
	)

	b.graph.AddLambdaNode(nodes.NodeResponseAssembler,
		nodes.NewResponseAssemblerNode(b.config.Persona),
	)

	b.graph.AddChatModelNode(nodes.NodeResponseModel,
		b.config.ChatModels.Response,
		compose.WithStatePostHandler(nodes.NewModelCostPostHandler(nodes.NodeResponseModel, b.config.ChatModels.ResponseModelName)),
	)

	b.graph.AddLambdaNode(nodes.NodeResponseParser,
		nodes.NewResponseParserNode(b.config.Metrics),
		compose.WithStatePostHandler(nodes.NewResponseParserPostHandler(b.config.Memory, b.config.Goals, b.config.Analytics)),
	)
}

// addEdges creates the main flow connections between nodes
func (b *GraphBuilder) addEdges() {
	edges := [][2]string{
		{compose.START, nodes.NodeContextLoader},
		{nodes.NodeContextLoader, nodes.NodeIntentModel},
		{nodes.NodeIntentModel, nodes.NodeIntentParser},
		{nodes.NodeIntentParser, nodes.NodeToolDispatch},
		{nodes.NodeToolDispatch, nodes.NodeResponseAssembler},
		{nodes.NodeResponseAssembler, nodes.NodeResponseModel},
		{nodes.NodeResponseModel, nodes.NodeResponseParser},
		{nodes.NodeResponseParser, compose.END},
	}

	for _, edge := range edges {
		b.graph.AddEdge(edge[0], edge[1])
	}
}

// compile finalizes and compiles the graph
func (b *GraphBuilder) compile(ctx context.Context) (compose.Runnable[model.TurnInput, *model.AgentResponse], error) {
	runnable, err := b.graph.Compile(ctx, compose.WithMaxRunSteps(20))
	if err != nil {
		logx.Error().Err(err).Msg("Error compiling graph")
		return nil, fmt.Errorf("error compiling graph: %w", err)
	}

	logx.Debug().Msg("Graph compiled successfully")
	return runnable, nil
}
