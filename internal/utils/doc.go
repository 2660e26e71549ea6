// Package utils exposes helpers shared by the commgraph commands.
//
// ConfigurationLoader layers embedded defaults, an optional configuration file
// and COMMGRAPH_ environment overrides through Viper. LoggerFactory builds zap
// loggers that write to standard error so command output stays parseable.
package utils
