// Package api provides the hosting control panel REST API.
//
//	@title						Hosting Panel API
//	@version					1.0
//	@description				Web hosting control panel API
//	@BasePath					/api
//	@securityDefinitions.apikey	ApiKeyAuth
//	@in							header
//	@name						X-API-Key
package api
