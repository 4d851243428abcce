// Package report defines the documents klumpen reads and writes.
//
// # Input
//
// A [Report] is the bundler-neutral description of one build: the target
// name, the bundler that produced it, the entry module, the emitted output
// size, every input module with its byte count and, optionally, the imports
// of every module. Reports are JSON or YAML:
//
//	{
//	  "target": "web",
//	  "bundler": "esbuild",
//	  "entry": "src/main.tsx",
//	  "output_bytes": 48213,
//	  "modules": [
//	    {"path": "src/main.tsx", "bytes": 812},
//	    {"path": "node_modules/react/index.js", "bytes": 190}
//	  ],
//	  "imports": {
//	    "src/main.tsx": [{"path": "node_modules/react/index.js"}]
//	  }
//	}
//
// Translating a bundler's own stats file into this shape happens outside
// klumpen. [Report.Normalize] cleans up the differences that survive the
// translation: Windows separators, query suffixes, absolute paths and
// missing external flags.
//
// # Output
//
// An [Analysis] is the aggregated result for one report, identified by a
// UUID. [TreemapDoc] and [ChainDoc] are views derived from an analysis and
// are what the CLI prints and the HTTP API returns.
//
// [Encode] writes any of these documents as JSON or YAML.
package report
