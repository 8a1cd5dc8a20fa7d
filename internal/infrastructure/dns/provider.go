package dns

import (
	"github.com/lite-lake/dnssync/internal/domain"
	"github.com/lite-lake/dnssync/internal/domain/contract"
	"github.com/lite-lake/dnssync/internal/domain/service"
)

var (
	ErrDomainNotFound = domain.ErrDNSDomainNotFound
	ErrRecordNotFound = domain.ErrDNSRecordNotFound
)

type Provider = contract.DNSProvider

type RawRecord = service.RawRecord
