package tools

import (
	"context"
	"strings"

	"github.com/cloudwego/eino/components/tool"
	"github.com/cloudwego/eino/components/tool/utils"
	"github.com/cloudwego/eino/schema"
	"github.com/hedera-chat-agent/server/internal/oracle"
)

type PriceFeedInput struct {
	Pair string `json:"pair"`
}

func createGetPriceFeedTool(deps Deps) tool.BaseTool {
	pairs := strings.Join(deps.Prices.Pairs(), ", ")
	return utils.NewTool(
		&schema.ToolInfo{
			Name: ToolGetPriceFeed,
			Desc: "Query the latest price from a Chainlink price feed oracle on Hedera testnet. Available pairs: " + pairs,
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
				"pair": {
					Type:     "string",
					Desc:     "Trading pair to query, one of: " + pairs,
					Required: true,
				},
			}),
		},
		func(ctx context.Context, in *PriceFeedInput) (*Result[*oracle.PriceFeedReading], error) {
			reading, err := deps.Prices.GetPrice(ctx, in.Pair)
			if err != nil {
				return failf[*oracle.PriceFeedReading]("%v", err)
			}
			return succeed(reading)
		},
	)
}

type AllPricesInput struct{}

func createGetAllPricesTool(deps Deps) tool.BaseTool {
	return utils.NewTool(
		&schema.ToolInfo{
			Name:        ToolGetAllPrices,
			Desc:        "Query every available Chainlink price feed on Hedera testnet in one call. Feeds that fail are omitted.",
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{}),
		},
		func(ctx context.Context, _ *AllPricesInput) (*Result[[]oracle.PriceFeedReading], error) {
			readings := deps.Prices.GetAllPrices(ctx)
			if len(readings) == 0 {
				return failf[[]oracle.PriceFeedReading]("Failed to fetch price feeds")
			}
			return succeed(readings)
		},
	)
}
