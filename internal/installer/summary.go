package installer

import (
	"context"
	"fmt"
	"io"
)

// report prints the collected and generated credentials in fixed order,
// followed by the certificate caution. Pure output; the last phase.
func (s *Sequencer) report(_ context.Context) error {
	writeSummary(s.stdout, s.cfg.Domain, s.cfg.AdminEmail, s.secrets, s.cfg.DBName, s.cfg.DBUser)
	return nil
}

func writeSummary(w io.Writer, domain, adminEmail string, secrets Secrets, dbName, dbUser string) {
	fmt.Fprintln(w)
	fmt.Fprintln(w, "GameAP installation complete.")
	fmt.Fprintln(w)
	fmt.Fprintf(w, "  Panel URL:         https://%s\n", domain)
	fmt.Fprintf(w, "  Admin email:       %s\n", adminEmail)
	fmt.Fprintf(w, "  Admin password:    %s\n", secrets.AdminPassword)
	fmt.Fprintf(w, "  Database name:     %s\n", dbName)
	fmt.Fprintf(w, "  Database user:     %s\n", dbUser)
	fmt.Fprintf(w, "  Database password: %s\n", secrets.DBPassword)
	fmt.Fprintln(w)
	fmt.Fprintln(w, "The TLS certificate is self-signed: browsers will warn until it is")
	fmt.Fprintln(w, "replaced with a trusted certificate. Do not rely on it in production.")
}
