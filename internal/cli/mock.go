package cli

import (
	"adcp/internal/mockagent"
)

// RunMockAgent serves the fixed-step simulator until interrupted.
func RunMockAgent(addr string) error {
	printInfo("mock creative agent on %s (tool endpoint %s/mcp/tools)", addr, addr)
	return mockagent.NewServer().ListenAndServe(addr)
}
