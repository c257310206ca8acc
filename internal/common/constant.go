package common

// AccessTokenHeaderName is the gRPC metadata key used to carry the
// access token on outbound requests.
const AccessTokenHeaderName = "access_token"

// ImagesRoot is the top-level prefix of every remote image path.
const ImagesRoot = "images"
