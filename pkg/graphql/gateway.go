package graphql

import "strings"

const (
	hostedServicePrefix = "https://api.thegraph.com/subgraphs/name/"
	gatewayPrefix       = "https://gateway.thegraph.com/api/subgraphs/name/"
)

// RewriteEndpoint rewrites a legacy hosted-service subgraph URL to its
// decentralized-gateway equivalent. Any other URL passes through unchanged.
// The transform is pure and applied before every request.
func RewriteEndpoint(url string) string {
	if rest, ok := strings.CutPrefix(url, hostedServicePrefix); ok {
		return gatewayPrefix + rest
	}
	return url
}
