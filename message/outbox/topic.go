package outbox

// Topic is the Postgres outbox topic the forwarder drains into Redis.
const Topic = "events_to_forward"
