package common

// AccessTokenHeaderName is the HTTP header used to carry the access token
// when an Authorization bearer header is not set.
const AccessTokenHeaderName = "access_token"
