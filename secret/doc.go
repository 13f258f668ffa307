// Package secret resolves credentials referenced from gptshell
// configuration.
//
// A configuration value may name a secret instead of holding it:
//
//	llm:
//	  api_key: secretref:env:OPENAI_API_KEY
//	auth:
//	  jwt_secret: secretref:file:/run/secrets/gptshell-jwt
//
// References may also appear inline ("Bearer secretref:env:TOKEN") and
// ${VAR} expansion runs first. Two providers are built in: "env" reads an
// environment variable and "file" reads a file with its trailing newline
// removed.
package secret
