package auth

import (
	"context"
	_ "embed"
	"sync"

	"natours/models"

	"github.com/open-policy-agent/opa/rego"
)

//go:embed policy/authz.rego
var authzPolicy string

var (
	preparedOnce sync.Once
	prepared     rego.PreparedEvalQuery
	preparedErr  error
)

func authzQuery(ctx context.Context) (rego.PreparedEvalQuery, error) {
	preparedOnce.Do(func() {
		prepared, preparedErr = rego.New(
			rego.Query("data.natours.authz.allow"),
			rego.Module("authz.rego", authzPolicy),
		).PrepareForEval(ctx)
	})
	return prepared, preparedErr
}

// Allowed asks the authorization policy whether role may use a route
// restricted to roles.
func Allowed(ctx context.Context, role models.Role, roles []models.Role) (bool, error) {
	query, err := authzQuery(ctx)
	if err != nil {
		return false, err
	}
	allowedRoles := make([]interface{}, 0, len(roles))
	for _, r := range roles {
		allowedRoles = append(allowedRoles, string(r))
	}
	rs, err := query.Eval(ctx, rego.EvalInput(map[string]interface{}{
		"role":  string(role),
		"roles": allowedRoles,
	}))
	if err != nil {
		return false, err
	}
	return rs.Allowed(), nil
}
