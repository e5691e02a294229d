// Package providers holds the provider-agnostic types shared by the relay:
// generation requests, stream fragments, credentials, typed upstream errors
// and the Adapter contract every vendor implements.
//
// # Adapters
//
// An Adapter only translates. BuildRequestBody turns a GenerationRequest into
// the vendor's JSON body and ParseStreamFrame turns one SSE frame back into a
// Fragment. Transport lives in HTTPClient, which owns connection pooling,
// status-code mapping and health tracking for one provider.
//
//	adapter, _ := providerfactory.New(cred, providerfactory.Options{})
//	body, _ := adapter.BuildRequestBody(req, true)
//	resp, err := client.Open(ctx, adapter, body)
//	if err != nil {
//	    // *ProviderError, *AuthError or *RateLimitError carry the status code
//	}
//	defer resp.Body.Close()
//
// # Errors
//
// Every upstream status failure carries its HTTP status (see StatusCode).
// ClientMessage reduces any error to the short string sent to browsers.
package providers
