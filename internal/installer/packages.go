package installer

import (
	"context"
	"fmt"

	"github.com/edvin/gameap-install/internal/platform"
)

// packagePlan is the fixed set of packages, package-manager invocations and
// services for one OS family. Plans are hard-coded: there is no dependency
// resolution beyond installing these named packages.
type packagePlan struct {
	// packages installed in one package-manager transaction.
	packages []string
	// pre holds invocations that must run before the install (cache update,
	// extra repositories).
	pre [][]string
	// installCmd is the package-manager install invocation; the package list
	// is appended to it.
	installCmd []string
	// services enabled and started after installation.
	services []string
	// webUser is the web server's service account, used later for file
	// ownership and the worker unit.
	webUser string
	// fpmSocket is where PHP-FPM listens on this family.
	fpmSocket string
}

var packagePlans = map[platform.Family]packagePlan{
	platform.FamilyDebian: {
		packages: []string{
			"nginx", "mariadb-server", "redis-server",
			"php-fpm", "php-mysql", "php-curl", "php-gd", "php-zip",
			"php-xml", "php-mbstring", "php-bcmath", "php-redis",
			"git", "curl", "unzip", "tar",
		},
		pre:        [][]string{{"apt-get", "update", "-q"}},
		installCmd: []string{"apt-get", "install", "-y", "-q"},
		services:   []string{"nginx", "mariadb", "redis-server"},
		webUser:    "www-data",
		fpmSocket:  "/run/php/php-fpm.sock",
	},
	platform.FamilyRHEL: {
		packages: []string{
			"nginx", "mariadb-server", "redis",
			"php-fpm", "php-mysqlnd", "php-gd", "php-zip",
			"php-xml", "php-mbstring", "php-bcmath", "php-pecl-redis",
			"git", "curl", "unzip", "tar",
		},
		pre:        [][]string{{"dnf", "install", "-y", "epel-release"}},
		installCmd: []string{"dnf", "install", "-y"},
		services:   []string{"nginx", "mariadb", "redis", "php-fpm"},
		webUser:    "nginx",
		fpmSocket:  "/run/php-fpm/www.sock",
	},
}

// planFor returns the package plan for a family. Unsupported families fail
// fast before any installation action.
func planFor(family platform.Family) (packagePlan, error) {
	plan, ok := packagePlans[family]
	if !ok {
		return packagePlan{}, fmt.Errorf("no package plan for OS family %q", family)
	}
	return plan, nil
}

// commands returns the full ordered package-manager invocation sequence.
func (p packagePlan) commands() [][]string {
	var cmds [][]string
	cmds = append(cmds, p.pre...)
	cmds = append(cmds, append(append([]string{}, p.installCmd...), p.packages...))
	for _, svc := range p.services {
		cmds = append(cmds, []string{"systemctl", "enable", "--now", svc})
	}
	return cmds
}

// installPackages installs the runtime dependencies for the detected OS
// family and enables their services. Any package-manager failure aborts the
// whole run; there is no retry and no partial-install recovery.
func (s *Sequencer) installPackages(ctx context.Context) error {
	plan, err := planFor(s.os.Family)
	if err != nil {
		return err
	}

	s.logger.Info().
		Str("family", string(s.os.Family)).
		Int("packages", len(plan.packages)).
		Msg("installing runtime packages")

	for _, cmd := range plan.commands() {
		if _, err := s.runner.Run(ctx, cmd[0], cmd[1:]...); err != nil {
			return err
		}
	}

	return nil
}
