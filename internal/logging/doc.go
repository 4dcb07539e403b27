// Package logging configures named loggers for shotmcp.
//
// A Registry hands out Logger handles keyed by dot-separated names. Each
// handle writes plain text lines
//
//	2006-01-02 15:04:05,000 - <name> - <LEVEL> - <message>
//
// to its sinks: the console and a size-bounded rotating file shared by every
// logger of the registry (<app-root>/logs/mcp_actions.log by default).
// Records propagate to the sinks of configured ancestor loggers.
package logging
