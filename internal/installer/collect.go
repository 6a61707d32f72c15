package installer

import (
	"bufio"
	"context"
	"fmt"
	"strings"

	"github.com/edvin/gameap-install/internal/config"
	"github.com/edvin/gameap-install/internal/crypto"
	"github.com/edvin/gameap-install/internal/platform"
)

// collect gathers the one operator-supplied value and derives the rest of
// the installation request. After this phase the request is sealed.
func (s *Sequencer) collect(_ context.Context) error {
	domain := strings.TrimSpace(s.domain)

	if domain == "" && s.prompt {
		read, err := s.promptDomain()
		if err != nil {
			return err
		}
		domain = read
	}

	if domain == "" {
		domain = config.DefaultDomain
	}

	s.cfg.Domain = domain
	s.cfg.AdminEmail = DeriveAdminEmail(domain)
	if s.cfg.LocalIP == "" {
		s.cfg.LocalIP = platform.LocalIP()
	}

	s.logger.Info().
		Str("domain", s.cfg.Domain).
		Str("admin_email", s.cfg.AdminEmail).
		Str("local_ip", s.cfg.LocalIP).
		Msg("installation request collected")

	return s.cfg.Validate()
}

// promptDomain reads one line of free-form text from the operator. Empty
// input falls through to the default; no syntax is enforced.
func (s *Sequencer) promptDomain() (string, error) {
	fmt.Fprintf(s.stdout, "Panel domain or IP address [%s]: ", config.DefaultDomain)

	line, err := bufio.NewReader(s.stdin).ReadString('\n')
	if err != nil && line == "" {
		// EOF with nothing typed is the same as accepting the default.
		return "", nil
	}
	return strings.TrimSpace(line), nil
}

// DeriveAdminEmail builds the administrator email from the panel domain,
// stripping exactly one leading "www." if present.
func DeriveAdminEmail(domain string) string {
	return "admin@" + strings.TrimPrefix(domain, "www.")
}

// generateSecrets produces the two random credentials used by the rest of
// the run. Each installation gets fresh entropy; nothing is reused.
func (s *Sequencer) generateSecrets(_ context.Context) error {
	s.secrets = Secrets{
		DBPassword:    crypto.GeneratePassword(dbPasswordLength),
		AdminPassword: crypto.GeneratePassword(adminPasswordLength),
	}
	s.logger.Info().Msg("generated database and admin credentials")
	return nil
}
