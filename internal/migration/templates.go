package migration

// Alarm criteria fragments. Each is a rule in the target's alarm language;
// %s verbs are replaced with the source threshold.

const agentPluginCriteria = `
if (metric['legacy_state'] == 'err') {
    return new AlarmStatus(CRITICAL);
}
if (metric['legacy_state'] == 'warn') {
    return new AlarmStatus(WARNING);
}
return new AlarmStatus(OK);
`

const httpStatusCodeCriteria = `
if (metric['code'] nregex '%s') {
  return new AlarmStatus(CRITICAL, 'HTTP server did not respond with %s status');
}
`

const httpBodyMatchCriteria = `
if (metric['body_match'] == '') {
    return new AlarmStatus(CRITICAL, 'HTTP response did not match %s');
}
`

const httpResponseTimeCriteria = `
if (metric['duration'] >= %s) {
  return new AlarmStatus(CRITICAL, 'HTTP request took %s or more milliseconds.');
}
`

const httpOKCriteria = `
return new AlarmStatus(OK);
`

const pingPacketLossCriteria = `
if (metric['available'] < 100) {
  return new AlarmStatus(CRITICAL, 'Packet loss detected');
}
return new AlarmStatus(OK, 'No packet loss detected');
`

const tcpBannerMatchCriteria = `
if (metric['banner'] nregex '%s') {
  return new AlarmStatus(CRITICAL, 'TCP banner did not match %s');
}
`

// A closed port already puts the check in CRITICAL, so TCP, SSH and DNS
// only need an OK rule to tie the check to a notification plan.
const tcpOKCriteria = `
return new AlarmStatus(OK, 'TCP connection established successfully');
`

const sshListeningCriteria = `
return new AlarmStatus(OK, 'SSH connection established successfully');
`

const dnsRecordExistsCriteria = `
return new AlarmStatus(OK, 'DNS record exists');
`

const memoryCriticalCriteria = `
if (percentage(metric['used'], metric['total']) > %s) {
  return new AlarmStatus(CRITICAL, 'Memory usage exceeded %s%%');
}
`

const memoryWarningCriteria = `
if (percentage(metric['used'], metric['total']) > %s) {
  return new AlarmStatus(WARNING, 'Memory usage exceeded %s%%');
}
`

const memoryOKCriteria = `
return new AlarmStatus(OK, 'Memory usage was normal');
`

const diskCriticalCriteria = `
if (percentage(metric['used'], metric['total']) > %s) {
  return new AlarmStatus(CRITICAL, 'Disk usage exceeded %s%%');
}
`

const diskWarningCriteria = `
if (percentage(metric['used'], metric['total']) > %s) {
  return new AlarmStatus(WARNING, 'Disk usage exceeded %s%%');
}
`

const diskOKCriteria = `
return new AlarmStatus(OK, 'Disk usage was normal');
`
